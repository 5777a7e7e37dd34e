package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/authsvc/internal/config"
	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

// MessageWriter is the subset of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes audit events as JSON, keyed by subject so that
// one account's events stay ordered within a partition.
type KafkaProducer struct {
	writer MessageWriter
	logger logger.Logger
}

// NewKafkaProducer builds a producer over a kafka.Writer for cfg.
func NewKafkaProducer(cfg *config.KafkaConfig, log logger.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: true,
	}
	return NewKafkaProducerWithWriter(writer, log)
}

// NewKafkaProducerWithWriter builds a producer over an existing writer.
func NewKafkaProducerWithWriter(writer MessageWriter, log logger.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer: writer,
		logger: log.WithComponent("audit_kafka_producer"),
	}
}

// LogEvent writes the event to the topic.
func (p *KafkaProducer) LogEvent(ctx context.Context, event models.AuditEvent) error {
	event.Prepare()
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode audit event")
	}

	msg := kafka.Message{
		Key:   []byte(event.Subject),
		Value: value,
		Time:  event.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(ctx, "Failed to publish audit event", err,
			logger.String("event_type", string(event.EventType)),
			logger.String("event_id", event.ID),
		)
		return errors.Wrap(err, "failed to publish audit event")
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
