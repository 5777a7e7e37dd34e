package crypto

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

var _ service.TokenCodec = (*JWTCodec)(nil)

var errUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// registered claims owned by the codec; extra claims never replace them
var reservedClaims = map[string]struct{}{
	"sub": {},
	"iat": {},
	"exp": {},
}

// JWTCodec mints and decodes HS256 session tokens.
type JWTCodec struct {
	keys    *SigningKeyProvider
	now     func() time.Time
	metrics service.Metrics
	log     logger.Logger
}

// CodecOption configures a JWTCodec.
type CodecOption func(*JWTCodec)

// WithClock replaces time.Now. Minting is deterministic for a fixed clock.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) {
		c.now = now
	}
}

// WithCodecMetrics sets the sink for decode failure counts.
func WithCodecMetrics(m service.Metrics) CodecOption {
	return func(c *JWTCodec) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewJWTCodec creates a codec signing with the key held by keys.
func NewJWTCodec(keys *SigningKeyProvider, log logger.Logger, opts ...CodecOption) *JWTCodec {
	c := &JWTCodec{
		keys:    keys,
		now:     time.Now,
		metrics: service.NoopMetrics{},
		log:     log.WithComponent("jwt_codec"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mint creates and signs a token for subject valid for ttl.
func (c *JWTCodec) Mint(ctx context.Context, subject string, extra map[string]interface{}, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.ErrInternal("cannot mint a token without subject")
	}
	if ttl <= 0 {
		return "", errors.ErrInternal("token ttl must be positive")
	}

	now := c.now()
	claims := jwt.MapClaims{}
	for k, v := range extra {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.keys.Key())
	if err != nil {
		c.log.Error(ctx, "Failed to sign JWT", err)
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// Decode verifies the signature of token and returns its claims.
func (c *JWTCodec) Decode(ctx context.Context, token string) (*models.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, c.fail(ctx, errors.NewDecodeError(errors.DecodeEmptyOrNull, nil))
	}

	parser := jwt.NewParser(
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errUnsupportedAlgorithm
		}
		return c.keys.Key(), nil
	})
	if err != nil {
		return nil, c.fail(ctx, errors.NewDecodeError(classify(err), err))
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, c.fail(ctx, errors.NewDecodeError(errors.DecodeMalformed, nil))
	}
	claims, err := toClaims(mapClaims)
	if err != nil {
		return nil, c.fail(ctx, errors.NewDecodeError(errors.DecodeMalformed, err))
	}
	return claims, nil
}

// IsValid reports whether token decodes, carries expectedSubject and has not expired.
func (c *JWTCodec) IsValid(ctx context.Context, token, expectedSubject string) bool {
	claims, err := c.Decode(ctx, token)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject && !claims.IsExpiredAt(c.now())
}

// ExtractSubject returns the subject of a decodable token.
func (c *JWTCodec) ExtractSubject(ctx context.Context, token string) (string, error) {
	claims, err := c.Decode(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *JWTCodec) fail(ctx context.Context, decErr *errors.DecodeError) error {
	fields := []logger.Field{logger.String("kind", string(decErr.Kind))}
	if cause := decErr.Unwrap(); cause != nil {
		fields = append(fields, logger.Error(cause))
	}
	c.log.Warn(ctx, decErr.Error(), fields...)
	c.metrics.RecordDecodeFailure(string(decErr.Kind))
	return decErr
}

// classify maps a parser error to exactly one decode kind.
func classify(err error) errors.DecodeKind {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.DecodeMalformed
	case errors.Is(err, errUnsupportedAlgorithm), errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.DecodeUnsupportedFormat
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return errors.DecodeBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.DecodeExpired
	default:
		return errors.DecodeMalformed
	}
}

func toClaims(mc jwt.MapClaims) (*models.Claims, error) {
	sub, err := mc.GetSubject()
	if err != nil {
		return nil, err
	}
	if sub == "" {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, err
	}
	iat, err := mc.GetIssuedAt()
	if err != nil {
		return nil, err
	}

	claims := &models.Claims{
		Subject:   sub,
		ExpiresAt: exp.Time,
		Extra:     make(map[string]interface{}),
	}
	if iat != nil {
		claims.IssuedAt = iat.Time
	}
	for k, v := range mc {
		if _, reserved := reservedClaims[k]; !reserved {
			claims.Extra[k] = v
		}
	}
	return claims, nil
}
