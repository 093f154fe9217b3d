package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/middlewares"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type AuthController struct {
	DB      *gorm.DB
	service *services.AuthService
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db, service: services.NewAuthService(db)}
}

// Register membuat user baru beserta organisasinya
func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	res, err := ac.service.Register(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "User registered", res)
}

// Login -> return JWT
func (ac *AuthController) Login(c *gin.Context) {
	var input services.LoginInput
	if !bindJSON(c, &input) {
		return
	}
	res, err := ac.service.Login(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", res)
}

func (ac *AuthController) Logout(c *gin.Context) {
	token := c.GetString(middlewares.ContextToken)
	if token == "" {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("token tidak ditemukan"))
		return
	}
	expiry, _ := c.Get(middlewares.ContextTokenExpiry)
	exp, _ := expiry.(time.Time)
	utils.BlacklistToken(token, exp)

	utils.InfoLogger.Printf("User %d logged out", currentUserID(c))
	utils.RespondJSON(c, http.StatusOK, "Logout successful", nil)
}

func (ac *AuthController) SwitchOrganization(c *gin.Context) {
	var input struct {
		OrganizationID uint `json:"organization_id" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}
	res, err := ac.service.SwitchOrganization(currentUserID(c), input.OrganizationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Organization switched", res)
}

func (ac *AuthController) Me(c *gin.Context) {
	profile, err := ac.service.Me(currentUserID(c), currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current user", profile)
}

// Membership is used by the auth middleware to check the caller's role.
func (ac *AuthController) Membership() middlewares.MembershipLookup {
	return ac.service
}
