package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authsvc/internal/config"
	"github.com/turtacn/authsvc/pkg/logger"
)

func newLimiter(t *testing.T, fallback bool) (*RedisRateLimiter, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRedisRateLimiter(client, &config.RateLimitConfig{
		Requests:      3,
		Window:        time.Minute,
		LocalFallback: fallback,
	}, logger.NewNoopLogger())

	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }
	return rl, mr, &now
}

func TestRedisRateLimiter_DrainsAndRefills(t *testing.T) {
	rl, _, now := newLimiter(t, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := rl.Allow(ctx, "login", "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, int64(2-i), res.Remaining)
		assert.Equal(t, int64(3), res.Limit)
	}

	res, err := rl.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.InDelta(t, float64(20*time.Second), float64(res.RetryAfter), float64(time.Millisecond))

	// Other clients have their own bucket.
	res, err = rl.Allow(ctx, "login", "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	*now = now.Add(21 * time.Second)
	res, err = rl.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	rl, _, _ := newLimiter(t, false)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := rl.Allow(ctx, "login", "10.0.0.1")
		require.NoError(t, err)
	}
	require.NoError(t, rl.Reset(ctx, "login", "10.0.0.1"))

	res, err := rl.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(2), res.Remaining)
}

func TestRedisRateLimiter_LocalFallback(t *testing.T) {
	rl, mr, _ := newLimiter(t, true)
	mr.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := rl.Allow(ctx, "login", "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := rl.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)
}

func TestRedisRateLimiter_NoFallbackReturnsError(t *testing.T) {
	rl, mr, _ := newLimiter(t, false)
	mr.Close()

	_, err := rl.Allow(context.Background(), "login", "10.0.0.1")
	assert.Error(t, err)
}
