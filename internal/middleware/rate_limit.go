package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"medbook_backend/internal/config"
	"medbook_backend/internal/logger"
	"medbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// Counter is the Redis operation the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimitMiddleware is a fixed-window limiter backed by Redis.
// scope separates counters per endpoint group so that auth endpoints
// can be throttled harder than the rest of the API.
//
// When Redis is down the limiter fails open if configured to: losing
// throttling briefly beats refusing all traffic.
func RateLimitMiddleware(counter Counter, scope string, maxRequests int) gin.HandlerFunc {
	cfg := config.GetConfig()
	window := time.Duration(cfg.RateLimit.WindowSec) * time.Second

	return func(c *gin.Context) {
		if !cfg.RateLimit.Enabled || counter == nil {
			c.Next()
			return
		}

		client := GetUserID(c)
		if client == "" {
			client = c.ClientIP()
		}
		key := fmt.Sprintf("rl:%s:%s", scope, client)

		count, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			if cfg.RateLimit.FailOpenRedis {
				logger.WithError(err).Warn("rate limiter unavailable, failing open", "scope", scope)
				c.Next()
				return
			}
			apperrors.HandleError(c, apperrors.Wrap(err, apperrors.CodeInternalError, "ratelimit", "Rate limiter unavailable", 500))
			c.Abort()
			return
		}

		if count > int64(maxRequests) {
			c.Header("Retry-After", strconv.Itoa(cfg.RateLimit.WindowSec))
			apperrors.HandleError(c, apperrors.ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}
