// Package ratelimit provides distributed rate limiting using Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/authsvc/internal/config"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

// Result represents the outcome of a rate limit check.
type Result struct {
	// Allowed indicates if the request is allowed
	Allowed bool
	// Limit is the bucket capacity
	Limit int64
	// Remaining is the number of requests left right now
	Remaining int64
	// RetryAfter is the wait before the next request can pass; zero when allowed
	RetryAfter time.Duration
}

// tokenBucketScript atomically refills and drains one bucket.
// ARGV: capacity, rate (tokens per second), requested, now (ms).
// Returns {allowed, remaining, capacity, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local requested = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1]) or capacity
local last_refill = tonumber(bucket[2]) or now

local elapsed = math.max(0, now - last_refill)
tokens = math.min(tokens + elapsed * rate / 1000, capacity)

local allowed = 0
local retry_ms = 0
if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
else
    retry_ms = math.ceil((requested - tokens) / rate * 1000)
end

local full_ms = math.ceil((capacity - tokens) / rate * 1000)
redis.call('HSET', key, 'tokens', tokens, 'last_refill', now)
redis.call('PEXPIRE', key, full_ms + 60000)

return {allowed, math.floor(tokens), capacity, retry_ms}
`)

// RedisRateLimiter implements distributed rate limiting using Redis.
type RedisRateLimiter struct {
	client   redis.UniversalClient
	logger   logger.Logger
	limit    int64
	rate     float64
	fallback *LocalLimiter // used while Redis fails
	now      func() time.Time
}

// NewRedisRateLimiter creates a new Redis-based rate limiter.
func NewRedisRateLimiter(client redis.UniversalClient, cfg *config.RateLimitConfig, log logger.Logger) *RedisRateLimiter {
	limit, window := cfg.Requests, cfg.Window
	if limit <= 0 {
		limit = constants.DefaultRateLimitRequests
	}
	if window <= 0 {
		window = constants.DefaultRateLimitWindow
	}

	rl := &RedisRateLimiter{
		client: client,
		logger: log.WithComponent("rate_limiter"),
		limit:  limit,
		rate:   float64(limit) / window.Seconds(),
		now:    time.Now,
	}
	if cfg.LocalFallback {
		rl.fallback = NewLocalLimiter(limit, window)
	}

	rl.logger.Info(context.Background(), "Redis rate limiter initialized",
		logger.Int64("limit", limit),
		logger.Duration("window", window),
		logger.Bool("local_fallback", cfg.LocalFallback),
	)
	return rl
}

// Allow consumes one request from the bucket of (scope, identifier).
func (rl *RedisRateLimiter) Allow(ctx context.Context, scope, identifier string) (*Result, error) {
	key := buildKey(scope, identifier)
	now := rl.now()

	res, err := tokenBucketScript.Run(ctx, rl.client, []string{key}, rl.limit, rl.rate, 1, now.UnixMilli()).Int64Slice()
	if err != nil {
		if rl.fallback != nil {
			rl.logger.Warn(ctx, "Rate limiter falling back to local buckets", logger.Error(err))
			return rl.fallback.AllowAt(key, now), nil
		}
		return nil, errors.Wrap(err, "rate limit check failed")
	}
	if len(res) != 4 {
		return nil, errors.ErrInternal(fmt.Sprintf("unexpected rate limit script result: %v", res))
	}

	return &Result{
		Allowed:    res[0] == 1,
		Remaining:  res[1],
		Limit:      res[2],
		RetryAfter: time.Duration(res[3]) * time.Millisecond,
	}, nil
}

// Reset clears the bucket of (scope, identifier).
func (rl *RedisRateLimiter) Reset(ctx context.Context, scope, identifier string) error {
	key := buildKey(scope, identifier)
	if rl.fallback != nil {
		rl.fallback.Remove(key)
	}
	if err := rl.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "rate limit reset failed")
	}
	rl.logger.Debug(ctx, "Rate limit reset", logger.String("key", key))
	return nil
}

func buildKey(scope, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", constants.RateLimitKeyPrefix, scope, identifier)
}
