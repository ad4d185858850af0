package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/pkg/api"
)

// ErrorHandler renders the last error pushed by a handler as a Result
// envelope.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			if apiErr.Log != nil {
				logger.Warn("request failed",
					zap.String("path", c.FullPath()),
					zap.String("request_id", c.GetString(ContextKeyRequestID)),
					zap.String("message", apiErr.Message),
					zap.Error(apiErr.Log))
			}
			c.JSON(apiErr.Status, apiErr.Result())
			c.Abort()
			return
		}

		logger.Error("unhandled error",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(ContextKeyRequestID)),
			zap.Error(err))

		internal := api.InternalError()
		c.JSON(internal.Status, internal.Result())
		c.Abort()
	}
}
