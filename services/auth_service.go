package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

type RegisterInput struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	OrganizationName string `json:"organization_name" binding:"required"`
}

type LoginInput struct {
	Email          string `json:"email" binding:"required"`
	Password       string `json:"password" binding:"required"`
	OrganizationID *uint  `json:"organization_id"`
}

// AuthResult is a signed token for a user acting in one organization.
type AuthResult struct {
	Token        string               `json:"token"`
	User         models.User          `json:"user"`
	Organization *models.Organization `json:"organization"`
	Role         string               `json:"role"`
}

// Profile is the signed-in user with every organization they belong to.
type Profile struct {
	User          models.User         `json:"user"`
	Organization  models.Organization `json:"organization"`
	Role          string              `json:"role"`
	Organizations []models.Membership `json:"organizations"`
}

// Register creates a user together with a new organization owned by them.
// The organization starts with the default unit catalog.
func (s *AuthService) Register(in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx := s.db.Begin()

	var existing int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		tx.Rollback()
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	}

	user := models.User{Name: strings.TrimSpace(in.Name), Email: email, Password: string(hashed)}
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	org := models.Organization{Name: strings.TrimSpace(in.OrganizationName), Slug: newSlug(in.OrganizationName)}
	if err := tx.Create(&org).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	membership := models.Membership{OrganizationID: org.ID, UserID: user.ID, Role: models.RoleOwner}
	if err := tx.Create(&membership).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	if _, err := seedDefaultUnits(tx, org.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	utils.InfoLogger.Printf("New user registered: %s (organization=%s)", user.Email, org.Slug)
	return issueToken(user, &org, models.RoleOwner)
}

// Login checks the credentials and signs a token for the requested
// organization, or the oldest membership when none is given.
func (s *AuthService) Login(in LoginInput) (*AuthResult, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(in.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	q := s.db.Where("user_id = ?", user.ID).Preload("Organization").Order("created_at").Order("id")
	if in.OrganizationID != nil {
		q = q.Where("organization_id = ?", *in.OrganizationID)
	}
	var membership models.Membership
	if err := q.First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user is not a member of any organization: %w", ErrForbidden)
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	utils.InfoLogger.Printf("Login successful for user: %s, organization: %d", user.Email, membership.OrganizationID)
	return issueToken(user, membership.Organization, membership.Role)
}

// SwitchOrganization signs a new token for another organization of the user.
func (s *AuthService) SwitchOrganization(userID, orgID uint) (*AuthResult, error) {
	var membership models.Membership
	err := s.db.Where("user_id = ? AND organization_id = ?", userID, orgID).
		Preload("User").Preload("Organization").
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("not a member of organization %d: %w", orgID, ErrForbidden)
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return issueToken(*membership.User, membership.Organization, membership.Role)
}

func (s *AuthService) Me(userID, orgID uint) (*Profile, error) {
	var memberships []models.Membership
	if err := s.db.Where("user_id = ?", userID).Preload("Organization").
		Order("created_at").Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user", userID)
	}

	profile := &Profile{User: user, Organizations: memberships}
	for _, m := range memberships {
		if m.OrganizationID == orgID {
			profile.Organization = *m.Organization
			profile.Role = m.Role
			return profile, nil
		}
	}
	return nil, fmt.Errorf("membership revoked: %w", ErrForbidden)
}

// Membership returns the role of a user in an organization.
func (s *AuthService) Membership(userID, orgID uint) (*models.Membership, error) {
	var m models.Membership
	if err := s.db.Where("user_id = ? AND organization_id = ?", userID, orgID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("membership revoked: %w", ErrForbidden)
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return &m, nil
}

func issueToken(user models.User, org *models.Organization, role string) (*AuthResult, error) {
	token, err := utils.GenerateToken(user.ID, org.ID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AuthResult{Token: token, User: user, Organization: org, Role: role}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// newSlug derives a unique organization slug from its name.
func newSlug(name string) string {
	base := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "org"
	}
	if len(base) > 40 {
		base = base[:40]
	}
	return base + "-" + uuid.NewString()[:8]
}
