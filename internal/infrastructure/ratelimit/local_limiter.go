package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// LocalLimiter keeps one in-process token bucket per key. It serves as the
// fallback when Redis is unreachable, so limits are per instance only.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    int64
	every    rate.Limit
}

// NewLocalLimiter creates a limiter allowing limit requests per window and key.
// Idle buckets are evicted after two windows.
func NewLocalLimiter(limit int64, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limiters: cache.New(2*window, window),
		limit:    limit,
		every:    rate.Limit(float64(limit) / window.Seconds()),
	}
}

func (l *LocalLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.limiters.Get(key); ok {
		lim := v.(*rate.Limiter)
		l.limiters.SetDefault(key, lim) // refresh expiry
		return lim
	}
	lim := rate.NewLimiter(l.every, int(l.limit))
	l.limiters.SetDefault(key, lim)
	return lim
}

// AllowAt consumes one token of key at now.
func (l *LocalLimiter) AllowAt(key string, now time.Time) *Result {
	lim := l.bucket(key)

	reservation := lim.ReserveN(now, 1)
	if !reservation.OK() {
		return &Result{Allowed: false, Limit: l.limit}
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return &Result{Allowed: false, Limit: l.limit, RetryAfter: delay}
	}

	remaining := int64(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return &Result{Allowed: true, Limit: l.limit, Remaining: remaining}
}

// Remove drops the bucket of key.
func (l *LocalLimiter) Remove(key string) {
	l.limiters.Delete(key)
}
