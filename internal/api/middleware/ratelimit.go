package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"ndx-snapshot-backend/internal/api/constant"
)

// RateLimit rejects requests beyond the limiter's budget with 429. A nil
// limiter lets everything through.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.Error(constant.ErrTooManyRefreshes)
			c.Abort()
			return
		}
		c.Next()
	}
}
