package models

import (
	"time"

	"github.com/yeremiapane/hpp-app/costing"
)

// Ingredient is a purchasable raw material. LegacyPricePerUnit and LegacyUnit
// are the columns used before purchase pricing existed; they are only read
// when PurchasePrice or ConversionRate is missing.
type Ingredient struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	OrganizationID     uint      `gorm:"not null;index" json:"organization_id"`
	Name               string    `gorm:"type:varchar(255);not null" json:"name"`
	Category           *string   `gorm:"type:varchar(100)" json:"category"`
	PurchaseUnit       string    `gorm:"type:varchar(50)" json:"purchase_unit"`
	PurchasePrice      *float64  `gorm:"type:decimal(15,2)" json:"purchase_price"`
	PackageSize        float64   `gorm:"not null" json:"package_size"`
	UsageUnit          string    `gorm:"type:varchar(50)" json:"usage_unit"`
	ConversionRate     *float64  `json:"conversion_rate"`
	YieldPercentage    float64   `gorm:"not null" json:"yield_percentage"`
	LegacyPricePerUnit float64   `gorm:"column:price_per_unit" json:"legacy_price_per_unit"`
	LegacyUnit         string    `gorm:"column:unit;type:varchar(50)" json:"legacy_unit"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (i Ingredient) Pricing() costing.Pricing {
	return costing.PricingFrom(i.PurchasePrice, i.ConversionRate, i.YieldPercentage, i.LegacyPricePerUnit)
}

// PriceHistory is an append-only record of a purchase price.
type PriceHistory struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	IngredientID   uint      `gorm:"not null;index" json:"ingredient_id"`
	PurchasePrice  float64   `gorm:"type:decimal(15,2);not null" json:"purchase_price"`
	PurchaseUnit   string    `gorm:"type:varchar(50)" json:"purchase_unit"`
	Supplier       *string   `gorm:"type:varchar(255)" json:"supplier"`
	Notes          *string   `gorm:"type:text" json:"notes"`
	RecordedAt     time.Time `gorm:"not null;index" json:"recorded_at"`
}

func (PriceHistory) TableName() string { return "price_histories" }
