package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/artwork-critic/internal/models"
)

const BodyTooLargeMessage = "Request body too large"

// BodyLimit caps request bodies at limit bytes. Declared lengths over the
// limit are rejected up front; streamed bodies fail on read with
// *http.MaxBytesError. A limit of zero or less disables the cap.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if limit <= 0 {
			ctx.Next()
			return
		}

		if ctx.Request.ContentLength > limit {
			ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.APIResponse{
				Success: false,
				Error:   BodyTooLargeMessage,
			})
			return
		}

		if ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
		}
		ctx.Next()
	}
}
