package services

import (
	"fmt"

	"github.com/yeremiapane/hpp-app/costing"
	"github.com/yeremiapane/hpp-app/models"
	"gorm.io/gorm"
)

// costSnapshot holds the rows of one organization that recipe and menu costs
// are derived from. It is loaded per request and never cached.
type costSnapshot struct {
	ingredients map[uint]models.Ingredient
	recipes     map[uint]models.Recipe
	graph       *costing.RecipeGraph
	calc        *costing.Calculator
}

func loadCostSnapshot(db *gorm.DB, orgID uint) (*costSnapshot, error) {
	var ingredients []models.Ingredient
	if err := db.Where("organization_id = ?", orgID).Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}

	var recipes []models.Recipe
	if err := db.Where("organization_id = ?", orgID).
		Preload("Ingredients").
		Preload("Components").
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	snap := &costSnapshot{
		ingredients: make(map[uint]models.Ingredient, len(ingredients)),
		recipes:     make(map[uint]models.Recipe, len(recipes)),
		graph:       costing.NewRecipeGraph(),
	}
	for _, ing := range ingredients {
		snap.ingredients[ing.ID] = ing
	}
	for _, r := range recipes {
		snap.recipes[r.ID] = r
		snap.graph.Add(snap.node(r))
	}
	snap.calc = costing.NewCalculator(snap.graph)
	return snap, nil
}

// node converts a stored recipe into the cost engine's view. Lines pointing at
// ingredients outside the organization are marked missing.
func (s *costSnapshot) node(r models.Recipe) costing.RecipeNode {
	n := costing.RecipeNode{ID: r.ID, Servings: r.Servings}
	for _, line := range r.Ingredients {
		ing, ok := s.ingredients[line.IngredientID]
		n.Ingredients = append(n.Ingredients, costing.IngredientLine{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			PricePerUnit: ing.Pricing().PricePerUnit(),
			Missing:      !ok,
		})
	}
	for _, c := range r.Components {
		n.Components = append(n.Components, costing.ComponentLine{
			SubRecipeID: c.SubRecipeID,
			Quantity:    c.Quantity,
		})
	}
	return n
}

func (s *costSnapshot) recipeName(id uint) string {
	return s.recipes[id].Name
}

func (s *costSnapshot) costPerServing(recipeID uint) (float64, error) {
	cost, err := s.calc.Cost(recipeID)
	if err != nil {
		return 0, err
	}
	return cost.CostPerServing, nil
}
