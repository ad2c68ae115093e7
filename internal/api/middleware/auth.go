package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"ndx-snapshot-backend/internal/api/constant"
)

// RequireRefreshToken guards write endpoints with a shared secret sent in the
// x-refresh-token header. An empty token disables the endpoint.
func RequireRefreshToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Error(constant.ErrRefreshNotConfigured)
			c.Abort()
			return
		}
		got := c.GetHeader(constant.RefreshTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.Error(constant.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
