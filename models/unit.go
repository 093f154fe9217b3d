package models

import (
	"time"

	"github.com/yeremiapane/hpp-app/costing"
)

// Unit is one entry of an organization's unit catalog. Group is stored as
// unit_group since "group" is reserved in SQL.
type Unit struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;uniqueIndex:idx_unit_org_name" json:"organization_id"`
	Name           string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_unit_org_name" json:"name"`
	Group          string    `gorm:"column:unit_group;type:varchar(20);not null" json:"group"`
	BaseValue      float64   `gorm:"not null" json:"base_value"`
	IsBaseUnit     bool      `json:"is_base_unit"`
	IsPurchaseUnit bool      `json:"is_purchase_unit"`
	IsUsageUnit    bool      `json:"is_usage_unit"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u Unit) Def() costing.UnitDef {
	return costing.UnitDef{Name: u.Name, Group: costing.UnitGroup(u.Group), BaseValue: u.BaseValue}
}

func (u Unit) CatalogUnit() costing.CatalogUnit {
	return costing.CatalogUnit{UnitDef: u.Def(), IsBaseUnit: u.IsBaseUnit}
}
