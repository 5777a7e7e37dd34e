// Package audit records authentication events to a database table or a Kafka topic.
package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/pkg/errors"
)

// GormAuditService stores audit events in the audit_events table.
type GormAuditService struct {
	db *gorm.DB
}

// NewGormAuditService creates a GORM-backed AuditService.
func NewGormAuditService(db *gorm.DB) *GormAuditService {
	return &GormAuditService{db: db}
}

// LogEvent inserts the event.
func (s *GormAuditService) LogEvent(ctx context.Context, event models.AuditEvent) error {
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return errors.Wrap(err, "failed to store audit event")
	}
	return nil
}

// ListBySubject returns the most recent events for subject, newest first.
func (s *GormAuditService) ListBySubject(ctx context.Context, subject string, limit int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := s.db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit events")
	}
	return events, nil
}

var _ service.AuditService = (*GormAuditService)(nil)
