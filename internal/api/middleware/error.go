package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ndx-snapshot-backend/internal/api/constant"
	"ndx-snapshot-backend/internal/api/dto"
	"ndx-snapshot-backend/internal/refresh"
)

// Error renders the first error attached to the request. Pass a logger to
// record unexpected failures; nil keeps it quiet.
func Error(logger ...*zap.Logger) gin.HandlerFunc {
	log := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		log = logger[0]
	}

	return func(c *gin.Context) {
		c.Next()

		// Whoever wrote first owns the response, a timed-out 504 included.
		if c.Writer.Written() {
			return
		}

		if errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, dto.Res{
				Success: false,
				Error:   "request timed out",
			})
			return
		}

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors[0]

		// - Validation error from request binding
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			validationErrors := make([]dto.ErrorType, 0)
			for _, fe := range ve {
				validationErrors = append(validationErrors, dto.ErrorType{
					Field:   fe.Field(),
					Message: fe.Error(),
				})
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.Res{
				Success: false,
				Error:   validationErrors,
			})
			return
		}

		// - Custom error from `constant`
		var ce constant.CustomError
		if errors.As(err, &ce) {
			c.AbortWithStatusJSON(ce.StatusCode, dto.Res{
				Success: false,
				Error:   ce.Error(),
			})
			return
		}

		// - Nothing to serve yet
		var nd *refresh.NoDataError
		if errors.As(err, &nd) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.Res{
				Success: false,
				Error:   nd.Error(),
			})
			return
		}

		// - Unknown error, likely internal server error
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Res{
			Success: false,
			Error:   err.Error(),
		})
	}
}
