package audit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/internal/domain/service"
)

// SignAuditEvent computes the base64 HMAC-SHA256 of the event with its
// Signature field cleared. The timestamp is normalised to UTC microseconds,
// the precision every supported database keeps.
func SignAuditEvent(event models.AuditEvent, secretKey string) (string, error) {
	event.Signature = ""
	event.Timestamp = event.Timestamp.UTC().Truncate(time.Microsecond)
	payload, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(payload)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// VerifyAuditEvent reports whether the stored signature matches the event.
func VerifyAuditEvent(event models.AuditEvent, secretKey string) bool {
	expected, err := SignAuditEvent(event, secretKey)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(event.Signature))
}

// SigningAuditService signs every event before handing it to next.
type SigningAuditService struct {
	next   service.AuditService
	secret string
}

// NewSigningAuditService wraps next so its events carry an HMAC signature.
func NewSigningAuditService(next service.AuditService, secret string) *SigningAuditService {
	return &SigningAuditService{next: next, secret: secret}
}

func (s *SigningAuditService) LogEvent(ctx context.Context, event models.AuditEvent) error {
	// id and timestamp are part of the signed payload
	event.Prepare()
	sig, err := SignAuditEvent(event, s.secret)
	if err != nil {
		return err
	}
	event.Signature = sig
	return s.next.LogEvent(ctx, event)
}
