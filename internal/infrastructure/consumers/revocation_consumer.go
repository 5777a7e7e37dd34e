// Package consumers contains Kafka consumers for background processing.
package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/authsvc/internal/config"
	"github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/pkg/logger"
)

const fetchBackoff = time.Second

// RevocationRequest asks every instance to revoke the live sessions of a user.
type RevocationRequest struct {
	UserID      string    `json:"userId"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RevocationConsumer applies RevocationRequests to the ledger.
// 消息处理成功后才提交 offset，失败的消息会被重新投递。
type RevocationConsumer struct {
	reader MessageReader
	ledger *service.RevocationLedger
	logger logger.Logger
}

// NewRevocationConsumer creates a consumer group reader for cfg.
func NewRevocationConsumer(cfg *config.RevocationConfig, ledger *service.RevocationLedger, log logger.Logger) *RevocationConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       1e6,
		CommitInterval: 0,
	})
	return NewRevocationConsumerWithReader(reader, ledger, log)
}

// NewRevocationConsumerWithReader builds a consumer over an existing reader.
func NewRevocationConsumerWithReader(reader MessageReader, ledger *service.RevocationLedger, log logger.Logger) *RevocationConsumer {
	return &RevocationConsumer{
		reader: reader,
		ledger: ledger,
		logger: log.WithComponent("revocation_consumer"),
	}
}

// Run consumes until ctx is cancelled, then closes the reader.
func (c *RevocationConsumer) Run(ctx context.Context) error {
	c.logger.Info(ctx, "Starting revocation consumer")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Error(context.Background(), "Failed to close kafka reader", err)
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info(context.Background(), "Stopping revocation consumer")
				return nil
			}
			c.logger.Error(ctx, "Failed to fetch message from kafka", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchBackoff):
			}
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			c.logger.Error(ctx, "Failed to apply revocation request", err,
				logger.Int64("offset", msg.Offset),
			)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error(ctx, "Failed to commit kafka message", err, logger.Int64("offset", msg.Offset))
		}
	}
}

// handle returns an error only when the message should be redelivered.
func (c *RevocationConsumer) handle(ctx context.Context, msg kafka.Message) error {
	var req RevocationRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		// poison message, skip it
		c.logger.Warn(ctx, "Discarding undecodable revocation request", logger.Error(err))
		return nil
	}
	if req.UserID == "" {
		c.logger.Warn(ctx, "Discarding revocation request without user id")
		return nil
	}

	n, err := c.ledger.RevokeAllForUser(ctx, req.UserID)
	if err != nil {
		return err
	}
	c.logger.Info(ctx, "Revoked user sessions",
		logger.String("user_id", req.UserID),
		logger.String("reason", req.Reason),
		logger.Int("revoked", n),
	)
	return nil
}

// PublishRevocation writes req to the topic the consumers read.
func PublishRevocation(ctx context.Context, w interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}, req RevocationRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	value, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(req.UserID), Value: value}); err != nil {
		return fmt.Errorf("publish revocation for %s: %w", req.UserID, err)
	}
	return nil
}
