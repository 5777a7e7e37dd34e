package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/turtacn/authsvc/internal/config"
	"github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/pkg/logger"
)

// NewAuditService picks the sink named by cfg. The returned close function
// is always non-nil.
func NewAuditService(cfg *config.AuditConfig, db *gorm.DB, log logger.Logger) (service.AuditService, func() error, error) {
	noClose := func() error { return nil }
	if !cfg.Enabled {
		return service.NoopAuditService{}, noClose, nil
	}

	var (
		sink    service.AuditService
		closeFn = noClose
	)
	switch cfg.Sink {
	case "database":
		sink = NewGormAuditService(db)
	case "kafka":
		producer := NewKafkaProducer(&cfg.Kafka, log)
		sink, closeFn = producer, producer.Close
	default:
		return nil, nil, fmt.Errorf("unsupported audit sink %q", cfg.Sink)
	}

	if cfg.HMACSecret != "" {
		sink = NewSigningAuditService(sink, cfg.HMACSecret)
	}
	log.Info(context.Background(), "Audit trail enabled",
		logger.String("sink", cfg.Sink),
		logger.Bool("signed", cfg.HMACSecret != ""),
	)
	return sink, closeFn, nil
}
