package secure

import "github.com/gin-gonic/gin"

// Headers sets baseline security response headers on every request.
func Headers() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if h.Get("X-Content-Type-Options") == "" {
			h.Set("X-Content-Type-Options", "nosniff")
		}
		if h.Get("Referrer-Policy") == "" {
			h.Set("Referrer-Policy", "no-referrer")
		}
		if h.Get("Permissions-Policy") == "" {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		}
		// only meaningful over HTTPS; harmless otherwise
		if h.Get("Strict-Transport-Security") == "" {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		c.Next()
	}
}
