package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type OrganizationController struct {
	DB      *gorm.DB
	service *services.OrganizationService
}

func NewOrganizationController(db *gorm.DB, notifier services.Notifier, invitationTTL time.Duration) *OrganizationController {
	return &OrganizationController{
		DB:      db,
		service: services.NewOrganizationService(db, notifier, invitationTTL),
	}
}

func (oc *OrganizationController) GetOrganization(c *gin.Context) {
	org, err := oc.service.Get(currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Organization", org)
}

func (oc *OrganizationController) UpdateOrganization(c *gin.Context) {
	var input services.OrganizationInput
	if !bindJSON(c, &input) {
		return
	}
	org, err := oc.service.Update(currentOrgID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Organization updated", org)
}

func (oc *OrganizationController) GetMembers(c *gin.Context) {
	members, err := oc.service.Members(currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of members", members)
}

func (oc *OrganizationController) UpdateMemberRole(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	var input struct {
		Role string `json:"role" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}
	m, err := oc.service.UpdateMemberRole(currentOrgID(c), userID, input.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Member updated", m)
}

func (oc *OrganizationController) RemoveMember(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	if err := oc.service.RemoveMember(currentOrgID(c), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Member removed", nil)
}

func (oc *OrganizationController) CreateInvitation(c *gin.Context) {
	var input services.InvitationInput
	if !bindJSON(c, &input) {
		return
	}
	inv, err := oc.service.CreateInvitation(currentOrgID(c), currentUserID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Invitation created", inv)
}

func (oc *OrganizationController) GetInvitations(c *gin.Context) {
	invitations, err := oc.service.Invitations(currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending invitations", invitations)
}

func (oc *OrganizationController) RevokeInvitation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := oc.service.RevokeInvitation(currentOrgID(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Invitation revoked", nil)
}

// AcceptInvitation is public: the token itself authorizes joining.
func (oc *OrganizationController) AcceptInvitation(c *gin.Context) {
	var input services.AcceptInput
	if !bindJSON(c, &input) {
		return
	}
	res, err := oc.service.AcceptInvitation(c.Param("token"), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Invitation accepted", res)
}
