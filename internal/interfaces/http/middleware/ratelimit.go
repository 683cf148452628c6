package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"warden/internal/infrastructure/ratelimit"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

// RateLimitMiddleware bounds request rates per client IP. It is applied to
// the credential endpoints, where unthrottled guessing would matter most.
type RateLimitMiddleware struct {
	limiter ratelimit.RateLimiter
	limit   int
	window  time.Duration
	logger  logger.Interface
}

func NewRateLimitMiddleware(limiter ratelimit.RateLimiter, limit int, window time.Duration, logger logger.Interface) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

// Limit returns a handler that throttles by client IP under the given key
// prefix, so login and register attempts are counted separately.
func (m *RateLimitMiddleware) Limit(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := prefix + ":" + c.ClientIP()

		allowed, err := m.limiter.Allow(c.Request.Context(), key, m.limit, m.window)
		if err != nil {
			// Limiter outages degrade to allowing traffic; the password and
			// token checks still stand on their own.
			m.logger.Warnw("rate limiter unavailable", "error", err, "key", key)
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "too many requests, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
