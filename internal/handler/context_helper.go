package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dataroom-api/internal/middleware"
	"github.com/noah-isme/dataroom-api/internal/models"
)

// currentUser returns the resolved user from the request context, or nil for
// anonymous callers.
func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func requestContext(c *gin.Context) models.RequestContext {
	return models.RequestContext{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
