package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/utils"
)

// WebSocketAuthMiddleware authenticates the upgrade request from the ?token=
// query parameter, since browsers cannot set headers on websocket requests.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		// Validasi token
		claims, err := utils.ValidateToken(token)
		if err != nil || claims.OrganizationID == 0 {
			c.AbortWithStatus(401)
			return
		}

		c.Set(ContextRole, claims.Role)
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextOrganizationID, claims.OrganizationID)

		c.Next()
	}
}
