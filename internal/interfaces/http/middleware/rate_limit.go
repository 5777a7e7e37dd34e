package middleware

import (
	"context"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/authsvc/internal/application/dto"
	"github.com/turtacn/authsvc/internal/infrastructure/ratelimit"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

// RateLimiter decides whether a client may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, scope, identifier string) (*ratelimit.Result, error)
}

// RateLimit throttles requests per client IP within scope. Limiter failures fail open.
func RateLimit(limiter RateLimiter, scope string, log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("rate_limit")
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		clientIP := c.ClientIP()

		res, err := limiter.Allow(ctx, scope, clientIP)
		if err != nil {
			log.Error(ctx, "Rate limiter failed", err, logger.String("scope", scope))
			c.Next()
			return
		}

		c.Header(constants.HeaderRateLimitLimit, strconv.FormatInt(res.Limit, 10))
		c.Header(constants.HeaderRateLimitRemaining, strconv.FormatInt(res.Remaining, 10))
		if !res.Allowed {
			c.Header(constants.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			log.Warn(ctx, "Rate limit exceeded",
				logger.String("scope", scope),
				logger.String("client_ip", clientIP),
			)
			dto.SendError(c, errors.ErrTooManyRequests(constants.MsgTooManyRequests))
			return
		}
		c.Next()
	}
}
