package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/notify"
	"github.com/yeremiapane/hpp-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

type OrganizationService struct {
	db            *gorm.DB
	notifier      Notifier
	invitationTTL time.Duration
	now           func() time.Time
}

func NewOrganizationService(db *gorm.DB, notifier Notifier, invitationTTL time.Duration) *OrganizationService {
	if invitationTTL <= 0 {
		invitationTTL = defaultInvitationTTL
	}
	return &OrganizationService{db: db, notifier: notifier, invitationTTL: invitationTTL, now: time.Now}
}

type OrganizationInput struct {
	Name *string `json:"name"`
}

type InvitationInput struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

// AcceptInput carries the account details of an invitee without a user yet.
// An existing user only needs the password.
type AcceptInput struct {
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

func (s *OrganizationService) Get(orgID uint) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, orgID).Error; err != nil {
		return nil, notFound(err, "organization", orgID)
	}
	return &org, nil
}

func (s *OrganizationService) Update(orgID uint, in OrganizationInput) (*models.Organization, error) {
	org, err := s.Get(orgID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "must not be empty")
		}
		org.Name = name
	}
	if err := s.db.Save(org).Error; err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

func (s *OrganizationService) Members(orgID uint) ([]models.Membership, error) {
	var members []models.Membership
	if err := s.db.Where("organization_id = ?", orgID).Preload("User").
		Order("created_at").Order("id").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *OrganizationService) member(db *gorm.DB, orgID, userID uint) (*models.Membership, error) {
	var m models.Membership
	if err := db.Where("organization_id = ? AND user_id = ?", orgID, userID).Preload("User").First(&m).Error; err != nil {
		return nil, notFound(err, "member", userID)
	}
	return &m, nil
}

// UpdateMemberRole changes the role of a member. Ownership cannot be
// granted or taken away this way.
func (s *OrganizationService) UpdateMemberRole(orgID, userID uint, role string) (*models.Membership, error) {
	if !models.ValidRole(role) || role == models.RoleOwner {
		return nil, invalid("role", "must be admin or member")
	}
	m, err := s.member(s.db, orgID, userID)
	if err != nil {
		return nil, err
	}
	if m.Role == models.RoleOwner {
		return nil, fmt.Errorf("the owner's role cannot be changed: %w", ErrForbidden)
	}
	m.Role = role
	if err := s.db.Omit("User", "Organization").Save(m).Error; err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	utils.InfoLogger.Printf("Member %d of organization %d is now %s", userID, orgID, role)
	return m, nil
}

func (s *OrganizationService) RemoveMember(orgID, userID uint) error {
	m, err := s.member(s.db, orgID, userID)
	if err != nil {
		return err
	}
	if m.Role == models.RoleOwner {
		return fmt.Errorf("the owner cannot be removed: %w", ErrForbidden)
	}
	if err := s.db.Delete(m).Error; err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	name := ""
	if m.User != nil {
		name = m.User.Name
	}
	s.notify(orgID, notify.EventMemberRemoved, "Anggota dihapus",
		fmt.Sprintf("%s tidak lagi menjadi anggota", name), map[string]interface{}{"user_id": userID})
	return nil
}

// CreateInvitation issues a single-use token for email to join the
// organization with role.
func (s *OrganizationService) CreateInvitation(orgID, invitedBy uint, in InvitationInput) (*models.Invitation, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	role := in.Role
	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidRole(role) || role == models.RoleOwner {
		return nil, invalid("role", "must be admin or member")
	}

	var existing int64
	err := s.db.Model(&models.Membership{}).
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.organization_id = ? AND users.email = ?", orgID, email).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%s is already a member: %w", email, ErrConflict)
	}

	inv := models.Invitation{
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		Token:          strings.ReplaceAll(uuid.NewString(), "-", ""),
		InvitedByID:    invitedBy,
		ExpiresAt:      s.now().Add(s.invitationTTL),
	}
	if err := s.db.Create(&inv).Error; err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.notify(orgID, notify.EventInvitationCreated, "Undangan dikirim",
		fmt.Sprintf("%s diundang sebagai %s", email, role), map[string]interface{}{"invitation_id": inv.ID})
	return &inv, nil
}

// Invitations lists the invitations that can still be accepted.
func (s *OrganizationService) Invitations(orgID uint) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := s.db.Where("organization_id = ? AND accepted_at IS NULL AND expires_at > ?", orgID, s.now()).
		Order("created_at DESC").Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

func (s *OrganizationService) RevokeInvitation(orgID, id uint) error {
	res := s.db.Where("organization_id = ? AND accepted_at IS NULL", orgID).Delete(&models.Invitation{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to revoke invitation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "invitation", ID: id}
	}
	return nil
}

// AcceptInvitation joins the invitee to the organization, creating their
// account when the email is not registered yet.
func (s *OrganizationService) AcceptInvitation(token string, in AcceptInput) (*AuthResult, error) {
	var (
		user models.User
		org  models.Organization
		inv  models.Invitation
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "invitation"}
			}
			return fmt.Errorf("failed to load invitation: %w", err)
		}
		now := s.now()
		if !inv.Pending(now) {
			return invalid("token", "invitation is no longer valid")
		}
		if err := tx.First(&org, inv.OrganizationID).Error; err != nil {
			return notFound(err, "organization", inv.OrganizationID)
		}

		err := tx.Where("email = ?", inv.Email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if strings.TrimSpace(in.Name) == "" {
				return invalid("name", "is required for a new account")
			}
			if len(in.Password) < 8 {
				return invalid("password", "must be at least 8 characters")
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user = models.User{Name: strings.TrimSpace(in.Name), Email: inv.Email, Password: string(hashed)}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to load user: %w", err)
		default:
			if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
				return fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
			}
		}

		var existing int64
		if err := tx.Model(&models.Membership{}).
			Where("organization_id = ? AND user_id = ?", org.ID, user.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("already a member of %s: %w", org.Name, ErrConflict)
		}
		if err := tx.Create(&models.Membership{OrganizationID: org.ID, UserID: user.ID, Role: inv.Role}).Error; err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}

		inv.AcceptedAt = &now
		if err := tx.Save(&inv).Error; err != nil {
			return fmt.Errorf("failed to accept invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("User %s joined organization %d as %s", user.Email, org.ID, inv.Role)
	s.notify(org.ID, notify.EventMemberJoined, "Anggota baru",
		fmt.Sprintf("%s bergabung sebagai %s", user.Name, inv.Role), map[string]interface{}{"user_id": user.ID})
	return issueToken(user, &org, inv.Role)
}

func (s *OrganizationService) notify(orgID uint, event, title, message string, data interface{}) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(orgID, nil, event, title, message, data); err != nil {
		utils.ErrorLogger.Printf("Failed to notify %s for organization %d: %v", event, orgID, err)
	}
}
