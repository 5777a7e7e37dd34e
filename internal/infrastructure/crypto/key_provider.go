// Package crypto provides the signing key, the JWT codec and password hashing.
package crypto

import (
	"encoding/base64"
	"strings"

	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
)

// SigningKeyProvider holds the HMAC key decoded once at startup.
// SigningKeyProvider 持有启动时解码一次的 HMAC 密钥。
type SigningKeyProvider struct {
	key []byte
}

// NewSigningKeyProvider decodes a base64 secret. The decoded key must be at least 32 bytes.
func NewSigningKeyProvider(secretBase64 string) (*SigningKeyProvider, error) {
	secret := strings.TrimSpace(secretBase64)
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, errors.Wrap(err, "signing secret is not valid base64")
	}
	if len(key) < constants.MinSecretKeyBytes {
		return nil, errors.ErrInternal("signing secret is shorter than 32 bytes")
	}
	return &SigningKeyProvider{key: key}, nil
}

// Key returns the HMAC key. Callers must not modify it.
func (p *SigningKeyProvider) Key() []byte {
	return p.key
}
