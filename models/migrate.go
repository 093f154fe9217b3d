package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table of the application.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Organization{},
		&Membership{},
		&Invitation{},
		&Unit{},
		&Ingredient{},
		&PriceHistory{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeComponent{},
		&Menu{},
		&MenuRecipe{},
		&MenuBundle{},
		&MenuBundleItem{},
		&Notification{},
	)
}
