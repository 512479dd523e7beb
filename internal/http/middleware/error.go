package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/artwork-critic/internal/models"
	"go.uber.org/zap"
)

// ErrorHandler handles panics. A panic after the response has started,
// such as mid-stream, can only be logged.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered interface{}) {
		RequestLogger(ctx, logger).Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", ctx.Request.URL.Path),
			zap.String("method", ctx.Request.Method),
		)

		if ctx.Writer.Written() {
			ctx.Abort()
			return
		}
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Error:   "Internal server error",
		})
	})
}
