package costing

import "sort"

// AverageCostPerServing is the mean cost per serving over every recipe in the
// graph, 0 for an empty graph.
func AverageCostPerServing(g *RecipeGraph) (float64, error) {
	if g.Len() == 0 {
		return 0, nil
	}
	calc := NewCalculator(g)
	var sum float64
	for _, id := range g.IDs() {
		cost, err := calc.Cost(id)
		if err != nil {
			return 0, err
		}
		sum += cost.CostPerServing
	}
	return sum / float64(g.Len()), nil
}

// RankedRecipe is a recipe id with its cost per serving.
type RankedRecipe struct {
	RecipeID       uint    `json:"recipe_id"`
	CostPerServing float64 `json:"cost_per_serving"`
}

// MostExpensive returns up to limit recipes ordered by cost per serving,
// highest first. Ties keep ascending id order.
func MostExpensive(g *RecipeGraph, limit int) ([]RankedRecipe, error) {
	calc := NewCalculator(g)
	ranked := make([]RankedRecipe, 0, g.Len())
	for _, id := range g.IDs() {
		cost, err := calc.Cost(id)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedRecipe{RecipeID: id, CostPerServing: cost.CostPerServing})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CostPerServing > ranked[j].CostPerServing
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
