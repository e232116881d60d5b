package ratelimit

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xthxr/DevAura/internal/errors"
)

// RefreshLimitMiddleware limits forced refreshes (refresh=true) per user.
// It must run after authentication. Requests without refresh pass through.
func (rl *RateLimiter) RefreshLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if refresh, _ := strconv.ParseBool(c.Query("refresh")); !refresh {
			c.Next()
			return
		}

		userID := c.GetString("user_id")
		if userID == "" {
			c.Next()
			return
		}

		result, err := rl.AllowRefresh(c.Request.Context(), userID)
		if err != nil {
			// Log error but don't block request on rate limiter failure
			slog.Error("Rate limit check failed", "user_id", userID, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			rl.metrics.RecordRateLimitBlock()
			retryAfter := int(result.RetryAfter.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			_ = c.Error(apperrors.NewRateLimitError(result.RetryAfter))
			c.Abort()
			return
		}

		c.Next()
	}
}
