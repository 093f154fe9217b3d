package models

import "time"

type MenuBundle struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	OrganizationID uint             `gorm:"not null;index" json:"organization_id"`
	Name           string           `gorm:"type:varchar(255);not null" json:"name"`
	Description    string           `gorm:"type:text" json:"description"`
	PromotionType  string           `gorm:"type:varchar(20);not null" json:"promotion_type"`
	DiscountValue  *float64         `json:"discount_value"`
	BundlePrice    *float64         `gorm:"type:decimal(15,2)" json:"bundle_price"`
	ValidFrom      *time.Time       `json:"valid_from"`
	ValidUntil     *time.Time       `json:"valid_until"`
	IsActive       bool             `json:"is_active"`
	Items          []MenuBundleItem `gorm:"foreignKey:BundleID" json:"items"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// IsCurrentlyValid reports whether the bundle is active and now falls inside
// its validity window. Open ends are unbounded.
func (b MenuBundle) IsCurrentlyValid(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.ValidFrom != nil && now.Before(*b.ValidFrom) {
		return false
	}
	if b.ValidUntil != nil && now.After(*b.ValidUntil) {
		return false
	}
	return true
}

type MenuBundleItem struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	BundleID uint    `gorm:"not null;index" json:"bundle_id"`
	MenuID   uint    `gorm:"not null;index" json:"menu_id"`
	Quantity float64 `gorm:"not null" json:"quantity"`
	IsFree   bool    `json:"is_free"`
}
