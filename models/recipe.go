package models

import "time"

type Recipe struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	OrganizationID uint               `gorm:"not null;index" json:"organization_id"`
	Name           string             `gorm:"type:varchar(255);not null" json:"name"`
	Description    string             `gorm:"type:text" json:"description"`
	Servings       int                `gorm:"not null" json:"servings"`
	Ingredients    []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
	Components     []RecipeComponent  `gorm:"foreignKey:RecipeID" json:"components"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type RecipeIngredient struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	RecipeID     uint    `gorm:"not null;index" json:"recipe_id"`
	IngredientID uint    `gorm:"not null;index" json:"ingredient_id"`
	Quantity     float64 `gorm:"not null" json:"quantity"`
}

// RecipeComponent uses Quantity servings of another recipe.
type RecipeComponent struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	RecipeID    uint    `gorm:"not null;index" json:"recipe_id"`
	SubRecipeID uint    `gorm:"not null;index" json:"sub_recipe_id"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
}
