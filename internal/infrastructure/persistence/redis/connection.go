// Package redis provides the Redis connection and the Redis-backed credential ledger.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/authsvc/internal/config"
	"github.com/turtacn/authsvc/pkg/logger"
)

// Connection manages the Redis client lifecycle.
type Connection struct {
	config        *config.RedisConfig
	client        redis.UniversalClient
	logger        logger.Logger
	isInitialized bool
}

// NewConnection creates a new, not yet connected, Redis connection manager.
func NewConnection(cfg *config.RedisConfig, log logger.Logger) *Connection {
	return &Connection{
		config: cfg,
		logger: log.WithComponent("redis"),
	}
}

// NewConnectionFromClient wraps an existing client, e.g. one pointed at miniredis.
func NewConnectionFromClient(client redis.UniversalClient, log logger.Logger) *Connection {
	return &Connection{
		config:        &config.RedisConfig{},
		client:        client,
		logger:        log.WithComponent("redis"),
		isInitialized: true,
	}
}

// Connect creates the client and verifies connectivity.
func (rc *Connection) Connect(ctx context.Context) error {
	if rc.isInitialized {
		rc.logger.Warn(ctx, "Redis connection already initialized")
		return nil
	}

	rc.setDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:         rc.config.Addr,
		Password:     rc.config.Password,
		DB:           rc.config.DB,
		PoolSize:     rc.config.PoolSize,
		MinIdleConns: rc.config.MinIdleConns,
		DialTimeout:  rc.config.DialTimeout,
		ReadTimeout:  rc.config.ReadTimeout,
		WriteTimeout: rc.config.WriteTimeout,
		MaxRetries:   rc.config.MaxRetries,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		rc.logger.Error(ctx, "Redis ping failed", err, logger.String("addr", rc.config.Addr))
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	rc.client = client
	rc.isInitialized = true
	rc.logger.Info(ctx, "Redis connection established successfully",
		logger.String("addr", rc.config.Addr),
		logger.Int("pool_size", rc.config.PoolSize),
	)
	return nil
}

func (rc *Connection) setDefaults() {
	if rc.config.Addr == "" {
		rc.config.Addr = "localhost:6379"
	}
	if rc.config.PoolSize == 0 {
		rc.config.PoolSize = 10
	}
	if rc.config.DialTimeout == 0 {
		rc.config.DialTimeout = 5 * time.Second
	}
	if rc.config.ReadTimeout == 0 {
		rc.config.ReadTimeout = 3 * time.Second
	}
	if rc.config.WriteTimeout == 0 {
		rc.config.WriteTimeout = 3 * time.Second
	}
	if rc.config.MaxRetries == 0 {
		rc.config.MaxRetries = 3
	}
}

// GetClient returns the client, or nil before Connect.
func (rc *Connection) GetClient() redis.UniversalClient {
	if !rc.isInitialized {
		return nil
	}
	return rc.client
}

// Ping checks Redis connectivity.
func (rc *Connection) Ping(ctx context.Context) error {
	if !rc.isInitialized {
		return fmt.Errorf("redis connection not initialized")
	}
	return rc.client.Ping(ctx).Err()
}

// HealthCheck reports connectivity and latency.
func (rc *Connection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if !rc.isInitialized {
		return nil, fmt.Errorf("redis connection not initialized")
	}

	start := time.Now()
	err := rc.client.Ping(ctx).Err()

	health := map[string]interface{}{
		"connected":  err == nil,
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		health["error"] = err.Error()
		return health, err
	}
	return health, nil
}

// Close closes the client.
func (rc *Connection) Close() error {
	if !rc.isInitialized {
		return nil
	}
	rc.isInitialized = false
	if err := rc.client.Close(); err != nil {
		rc.logger.Error(context.Background(), "Failed to close Redis connection", err)
		return err
	}
	rc.logger.Info(context.Background(), "Redis connection closed")
	return nil
}
