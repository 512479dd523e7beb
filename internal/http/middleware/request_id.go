package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
	loggerKey       = "logger"
)

// RequestID tags every request with an id, taken from the X-Request-ID
// header when the caller supplies one, and stores a logger carrying it.
func RequestID(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}

		ctx.Set(RequestIDKey, id)
		ctx.Set(loggerKey, logger.With(zap.String("request_id", id)))
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}

func GetRequestID(ctx *gin.Context) string {
	return ctx.GetString(RequestIDKey)
}

// RequestLogger returns the request-scoped logger, or fallback when the
// RequestID middleware did not run.
func RequestLogger(ctx *gin.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Get(loggerKey); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return fallback
}
