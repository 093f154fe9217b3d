package services

import (
	"fmt"

	"github.com/yeremiapane/hpp-app/costing"
	"github.com/yeremiapane/hpp-app/models"
	"gorm.io/gorm"
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type MenuProfit struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	SellingPrice float64 `json:"selling_price"`
	TotalCost    float64 `json:"total_cost"`
	Profit       float64 `json:"profit"`
}

type RecipeRank struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	CostPerServing float64 `json:"cost_per_serving"`
}

type DashboardStats struct {
	IngredientCount      int64        `json:"ingredient_count"`
	RecipeCount          int64        `json:"recipe_count"`
	MenuCount            int64        `json:"menu_count"`
	BundleCount          int64        `json:"bundle_count"`
	AverageHPPPerServing float64      `json:"average_hpp_per_serving"`
	AverageMenuMargin    float64      `json:"average_menu_margin"`
	NegativeProfitMenus  []MenuProfit `json:"negative_profit_menus"`
	TopRecipes           []RecipeRank `json:"top_recipes"`
}

const topRecipeLimit = 5

// Stats aggregates the organization's costs for the dashboard.
func (s *DashboardService) Stats(orgID uint) (*DashboardStats, error) {
	stats := &DashboardStats{
		NegativeProfitMenus: []MenuProfit{},
		TopRecipes:          []RecipeRank{},
	}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.Ingredient{}, &stats.IngredientCount},
		{&models.Recipe{}, &stats.RecipeCount},
		{&models.Menu{}, &stats.MenuCount},
		{&models.MenuBundle{}, &stats.BundleCount},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Where("organization_id = ?", orgID).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}

	snap, err := loadCostSnapshot(s.db, orgID)
	if err != nil {
		return nil, err
	}
	if stats.AverageHPPPerServing, err = costing.AverageCostPerServing(snap.graph); err != nil {
		return nil, err
	}

	ranked, err := costing.MostExpensive(snap.graph, topRecipeLimit)
	if err != nil {
		return nil, err
	}
	for _, r := range ranked {
		stats.TopRecipes = append(stats.TopRecipes, RecipeRank{
			ID:             r.RecipeID,
			Name:           snap.recipeName(r.RecipeID),
			CostPerServing: r.CostPerServing,
		})
	}

	menus, err := loadMenus(s.db, orgID)
	if err != nil {
		return nil, err
	}
	var marginSum float64
	for _, m := range menus {
		view, err := snap.menuView(m)
		if err != nil {
			return nil, err
		}
		marginSum += view.ProfitMargin
		if view.Profit < 0 {
			stats.NegativeProfitMenus = append(stats.NegativeProfitMenus, MenuProfit{
				ID:           view.ID,
				Name:         view.Name,
				SellingPrice: view.SellingPrice,
				TotalCost:    view.TotalCost,
				Profit:       view.Profit,
			})
		}
	}
	if len(menus) > 0 {
		stats.AverageMenuMargin = marginSum / float64(len(menus))
	}
	return stats, nil
}
