package models

import "time"

type Menu struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	OrganizationID uint         `gorm:"not null;index" json:"organization_id"`
	Name           string       `gorm:"type:varchar(255); not null" json:"name"`
	Category       *string      `gorm:"type:varchar(100)" json:"category"`
	Description    string       `gorm:"type:text" json:"description"`
	SellingPrice   float64      `gorm:"type:decimal(15,2); not null" json:"selling_price"`
	Recipes        []MenuRecipe `gorm:"foreignKey:MenuID" json:"recipes"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// MenuRecipe uses Quantity servings of a recipe in one menu item.
type MenuRecipe struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	MenuID   uint    `gorm:"not null;index" json:"menu_id"`
	RecipeID uint    `gorm:"not null;index" json:"recipe_id"`
	Quantity float64 `gorm:"not null" json:"quantity"`
}
