package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders adds security headers. HSTS is only sent when enabled,
// since local development runs over plain HTTP.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("X-Frame-Options", "DENY")
		ctx.Header("X-Content-Type-Options", "nosniff")
		ctx.Header("Referrer-Policy", "no-referrer")
		if hsts {
			ctx.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		ctx.Next()
	}
}
