package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dataroom-api/internal/models"
	"github.com/noah-isme/dataroom-api/internal/service"
)

// ContextUserKey is the gin context key storing the resolved user.
const ContextUserKey = "currentUser"

// Session resolves the caller's identity from the session cookie or a Bearer
// token and attaches it to the context. It never blocks: anonymous callers
// pass through and each service decides whether authentication is required.
func Session(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var claims *models.SessionClaims

		if raw := sessionToken(c, cookieName); raw != "" {
			parsed, err := authService.ValidateSession(raw)
			if err == nil {
				claims = parsed
			}
		}

		user, err := authService.ResolveIdentity(c.Request.Context(), claims, c.Query("email"))
		if err == nil && user != nil {
			c.Set(ContextUserKey, user)
		}

		c.Next()
	}
}

func sessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
