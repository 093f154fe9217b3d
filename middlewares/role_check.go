package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/utils"
)

// RequireRole lets through members whose role is at least min.
func RequireRole(min string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextRole)
		if !exists {
			utils.AbortWithError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			return
		}

		role, _ := userRole.(string)
		if !models.RoleAtLeast(role, min) {
			utils.AbortWithError(c, http.StatusForbidden, fmt.Errorf("%s access required", min))
			return
		}

		c.Next()
	}
}
