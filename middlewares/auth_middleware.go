package middlewares

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
)

// Context keys set by the auth middlewares.
const (
	ContextUserID         = "user_id"
	ContextOrganizationID = "organization_id"
	ContextRole           = "role"
	ContextToken          = "token"
	ContextTokenExpiry    = "token_exp"
)

// MembershipLookup confirms that a token's user still belongs to its
// organization.
type MembershipLookup interface {
	Membership(userID, orgID uint) (*models.Membership, error)
}

// EnhancedAuthMiddleware accepts a Bearer token and loads the caller's
// organization and role into the context. With a non-nil lookup the role is
// taken from the current membership, so revoked members are rejected and
// role changes apply before the token expires.
func EnhancedAuthMiddleware(members MembershipLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("token tidak ditemukan"))
			return
		}

		// Validasi format token
		if !strings.HasPrefix(header, "Bearer ") {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("format token tidak valid"))
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, err)
			return
		}
		if claims.OrganizationID == 0 {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("token tanpa organisasi"))
			return
		}

		role := claims.Role
		if members != nil {
			m, err := members.Membership(claims.UserID, claims.OrganizationID)
			if err != nil {
				if errors.Is(err, services.ErrForbidden) {
					utils.AbortWithError(c, http.StatusForbidden, err)
					return
				}
				utils.ErrorLogger.Printf("Membership lookup failed for user %d: %v", claims.UserID, err)
				utils.AbortWithError(c, http.StatusInternalServerError, errors.New("internal server error"))
				return
			}
			role = m.Role
		}

		var expiry time.Time
		if claims.ExpiresAt != nil {
			expiry = claims.ExpiresAt.Time
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextOrganizationID, claims.OrganizationID)
		c.Set(ContextRole, role)
		c.Set(ContextToken, tokenString)
		c.Set(ContextTokenExpiry, expiry)
		c.Next()
	}
}
