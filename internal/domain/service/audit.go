package service

import (
	"context"

	"github.com/turtacn/authsvc/internal/domain/models"
)

// AuditService records authentication events.
// AuditService 记录认证事件。
type AuditService interface {
	LogEvent(ctx context.Context, event models.AuditEvent) error
}

// NoopAuditService drops every event.
type NoopAuditService struct{}

func (NoopAuditService) LogEvent(context.Context, models.AuditEvent) error { return nil }

var _ AuditService = NoopAuditService{}
