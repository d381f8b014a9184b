package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cvpulse-backend/internal/shared/server/middleware"
	"cvpulse-backend/internal/shared/server/respond"
)

// Middleware throttles a route group against the given bucket. The upload
// pipeline calls the limiter directly after validation; this wrapper covers
// everything else.
func Middleware(limiter *Limiter, bucket string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, role := CallerKey(c)

		decision := limiter.Admit(key, bucket, role)
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
			respond.ErrorWithRetry(c, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests. Please try again later.", decision.RetryAfter, nil)
			return
		}
		c.Next()
	}
}

// CallerKey resolves the identity the limiter counts against: the user ID
// when authenticated, otherwise the client IP. The role defaults to
// anonymous for guests and to the standard tier for token roles the
// limiter does not know.
func CallerKey(c *gin.Context) (key, role string) {
	if userID := middleware.UserIDFromContext(c); userID != "" {
		role = middleware.UserRoleFromContext(c)
		if role == "" {
			role = "default"
		}
		return userID, role
	}
	return c.ClientIP(), "anonymous"
}
