package models

import "time"

// Membership roles, highest first.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

var roleRank = map[string]int{
	RoleOwner:  3,
	RoleAdmin:  2,
	RoleMember: 1,
}

// ValidRole reports whether role is one of the membership roles.
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// RoleAtLeast reports whether role grants at least the rights of min.
func RoleAtLeast(role, min string) bool {
	return roleRank[role] >= roleRank[min] && roleRank[min] > 0
}

type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Membership struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	OrganizationID uint          `gorm:"not null;uniqueIndex:idx_membership_org_user" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"organization,omitempty"`
	UserID         uint          `gorm:"not null;uniqueIndex:idx_membership_org_user" json:"user_id"`
	User           *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Role           string        `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type Invitation struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OrganizationID uint       `gorm:"not null;index" json:"organization_id"`
	Email          string     `gorm:"type:varchar(255);not null" json:"email"`
	Role           string     `gorm:"type:varchar(20);not null" json:"role"`
	Token          string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	InvitedByID    uint       `gorm:"not null" json:"invited_by_id"`
	ExpiresAt      time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Expired reports whether the invitation can no longer be accepted at now.
func (i Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Pending is an invitation that was neither accepted nor expired.
func (i Invitation) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && !i.Expired(now)
}
