package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/hpp-app/costing"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type MenuService struct {
	db *gorm.DB
}

func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{db: db}
}

type MenuRecipeInput struct {
	RecipeID uint    `json:"recipe_id"`
	Quantity float64 `json:"quantity"`
}

type MenuInput struct {
	Name         *string            `json:"name"`
	Category     *string            `json:"category"`
	Description  *string            `json:"description"`
	SellingPrice *float64           `json:"selling_price"`
	Recipes      *[]MenuRecipeInput `json:"recipes"`
}

type MenuFilter struct {
	Category string
	Search   string
}

type MenuRecipeView struct {
	models.MenuRecipe
	Name           string  `json:"name"`
	CostPerServing float64 `json:"cost_per_serving"`
	Cost           float64 `json:"cost"`
}

// MenuView is a menu item with its cost, profit and suggested prices.
type MenuView struct {
	ID           uint             `json:"id"`
	Name         string           `json:"name"`
	Category     *string          `json:"category"`
	Description  string           `json:"description"`
	SellingPrice float64          `json:"selling_price"`
	Recipes      []MenuRecipeView `json:"recipes"`
	costing.MenuCost
	SuggestedPrices []costing.SuggestedPrice `json:"suggested_prices"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func (s *costSnapshot) menuView(m models.Menu) (MenuView, error) {
	view := MenuView{
		ID:           m.ID,
		Name:         m.Name,
		Category:     m.Category,
		Description:  m.Description,
		SellingPrice: m.SellingPrice,
		Recipes:      make([]MenuRecipeView, 0, len(m.Recipes)),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	lines := make([]costing.MenuLine, 0, len(m.Recipes))
	for _, mr := range m.Recipes {
		cps, err := s.costPerServing(mr.RecipeID)
		if err != nil {
			return MenuView{}, err
		}
		lines = append(lines, costing.MenuLine{RecipeID: mr.RecipeID, Quantity: mr.Quantity, CostPerServing: cps})
		view.Recipes = append(view.Recipes, MenuRecipeView{
			MenuRecipe:     mr,
			Name:           s.recipeName(mr.RecipeID),
			CostPerServing: cps,
			Cost:           cps * mr.Quantity,
		})
	}
	view.MenuCost = costing.CalculateMenuCost(m.SellingPrice, lines)
	view.SuggestedPrices = costing.SuggestPrices(view.TotalCost)
	return view, nil
}

func loadMenus(db *gorm.DB, orgID uint, ids ...uint) ([]models.Menu, error) {
	q := db.Where("organization_id = ?", orgID).Preload("Recipes")
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	var menus []models.Menu
	if err := q.Order("name").Order("id").Find(&menus).Error; err != nil {
		return nil, fmt.Errorf("failed to load menus: %w", err)
	}
	return menus, nil
}

func (s *MenuService) List(orgID uint, f MenuFilter) ([]MenuView, error) {
	q := s.db
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	menus, err := loadMenus(q, orgID)
	if err != nil {
		return nil, err
	}
	snap, err := loadCostSnapshot(s.db, orgID)
	if err != nil {
		return nil, err
	}
	views := make([]MenuView, 0, len(menus))
	for _, m := range menus {
		view, err := snap.menuView(m)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *MenuService) Get(orgID, id uint) (*MenuView, error) {
	var menu models.Menu
	if err := s.db.Where("organization_id = ?", orgID).Preload("Recipes").First(&menu, id).Error; err != nil {
		return nil, notFound(err, "menu", id)
	}
	snap, err := loadCostSnapshot(s.db, orgID)
	if err != nil {
		return nil, err
	}
	view, err := snap.menuView(menu)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *MenuService) Create(orgID uint, in MenuInput) (*MenuView, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if in.SellingPrice == nil {
		return nil, invalid("selling_price", "is required")
	}
	menu := models.Menu{OrganizationID: orgID}
	applyMenuFields(&menu, in)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Recipes").Create(&menu).Error; err != nil {
			return fmt.Errorf("failed to create menu: %w", err)
		}
		return replaceMenuRecipes(tx, orgID, menu.ID, in.Recipes)
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Menu %s created for organization %d", menu.Name, orgID)
	return s.Get(orgID, menu.ID)
}

func (s *MenuService) Update(orgID, id uint, in MenuInput) (*MenuView, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "must not be empty")
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var menu models.Menu
		if err := tx.Where("organization_id = ?", orgID).First(&menu, id).Error; err != nil {
			return notFound(err, "menu", id)
		}
		applyMenuFields(&menu, in)
		if err := tx.Omit("Recipes").Save(&menu).Error; err != nil {
			return fmt.Errorf("failed to update menu: %w", err)
		}
		return replaceMenuRecipes(tx, orgID, menu.ID, in.Recipes)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orgID, id)
}

// Delete removes a menu and its recipe lines unless a bundle still sells it.
func (s *MenuService) Delete(orgID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var menu models.Menu
		if err := tx.Where("organization_id = ?", orgID).First(&menu, id).Error; err != nil {
			return notFound(err, "menu", id)
		}
		var inBundles int64
		if err := tx.Model(&models.MenuBundleItem{}).Where("menu_id = ?", id).Count(&inBundles).Error; err != nil {
			return fmt.Errorf("failed to check menu usage: %w", err)
		}
		if inBundles > 0 {
			return &InUseError{Entity: "menu", UsedBy: "bundle item(s)", Count: inBundles}
		}
		if err := tx.Where("menu_id = ?", id).Delete(&models.MenuRecipe{}).Error; err != nil {
			return fmt.Errorf("failed to delete menu recipes: %w", err)
		}
		if err := tx.Delete(&menu).Error; err != nil {
			return fmt.Errorf("failed to delete menu: %w", err)
		}
		utils.InfoLogger.Printf("Menu %d deleted from organization %d", id, orgID)
		return nil
	})
}

func (s *MenuService) Categories(orgID uint) ([]string, error) {
	return distinctCategories(s.db.Model(&models.Menu{}), orgID)
}

func applyMenuFields(m *models.Menu, in MenuInput) {
	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if c == "" {
			m.Category = nil
		} else {
			m.Category = &c
		}
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.SellingPrice != nil {
		m.SellingPrice = *in.SellingPrice
	}
}

func replaceMenuRecipes(tx *gorm.DB, orgID, menuID uint, lines *[]MenuRecipeInput) error {
	if lines == nil {
		return nil
	}
	ids := make([]uint, 0, len(*lines))
	for i, line := range *lines {
		if line.Quantity <= 0 {
			return invalid(fmt.Sprintf("recipes[%d].quantity", i), "must be greater than 0")
		}
		ids = append(ids, line.RecipeID)
	}
	missing, err := missingIDs(tx, &models.Recipe{}, orgID, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return invalid("recipes", "recipe %d not found", missing[0])
	}

	if err := tx.Where("menu_id = ?", menuID).Delete(&models.MenuRecipe{}).Error; err != nil {
		return fmt.Errorf("failed to replace menu recipes: %w", err)
	}
	for _, line := range *lines {
		row := models.MenuRecipe{MenuID: menuID, RecipeID: line.RecipeID, Quantity: line.Quantity}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to replace menu recipes: %w", err)
		}
	}
	return nil
}
