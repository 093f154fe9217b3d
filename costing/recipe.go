package costing

import (
	"fmt"
	"sort"
	"strings"
)

// IngredientLine is one ingredient used by a recipe, quantity in the
// ingredient's usage unit. Missing marks a line whose ingredient no longer
// exists; it contributes nothing.
type IngredientLine struct {
	IngredientID uint
	Quantity     float64
	PricePerUnit float64
	Missing      bool
}

// ComponentLine uses Quantity servings of another recipe.
type ComponentLine struct {
	SubRecipeID uint
	Quantity    float64
}

// RecipeNode is a recipe as seen by the cost engine.
type RecipeNode struct {
	ID          uint
	Servings    int
	Ingredients []IngredientLine
	Components  []ComponentLine
}

// RecipeGraph holds every recipe of one organization with their component
// edges.
type RecipeGraph struct {
	nodes map[uint]*RecipeNode
}

func NewRecipeGraph(nodes ...RecipeNode) *RecipeGraph {
	g := &RecipeGraph{nodes: make(map[uint]*RecipeNode, len(nodes))}
	for _, n := range nodes {
		g.Add(n)
	}
	return g
}

// Add inserts or replaces a node.
func (g *RecipeGraph) Add(n RecipeNode) {
	node := n
	g.nodes[n.ID] = &node
}

// Node returns the node with the given id.
func (g *RecipeGraph) Node(id uint) (RecipeNode, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return RecipeNode{}, false
	}
	return *n, true
}

// Len is the number of recipes in the graph.
func (g *RecipeGraph) Len() int { return len(g.nodes) }

// IDs returns the recipe ids in ascending order.
func (g *RecipeGraph) IDs() []uint {
	ids := make([]uint, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetComponents replaces the component edges of id, creating the node when it
// is not in the graph yet. Used to validate a write before it is stored.
func (g *RecipeGraph) SetComponents(id uint, components []ComponentLine) {
	n, ok := g.nodes[id]
	if !ok {
		n = &RecipeNode{ID: id, Servings: 1}
		g.nodes[id] = n
	}
	n.Components = append([]ComponentLine(nil), components...)
}

// Parents returns the ids of recipes that use id as a component.
func (g *RecipeGraph) Parents(id uint) []uint {
	var parents []uint
	for _, pid := range g.IDs() {
		for _, c := range g.nodes[pid].Components {
			if c.SubRecipeID == id {
				parents = append(parents, pid)
				break
			}
		}
	}
	return parents
}

// CyclicCompositionError is returned when a recipe ends up containing itself.
type CyclicCompositionError struct {
	Path []uint
}

func (e *CyclicCompositionError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "recipe composition cycle: " + strings.Join(parts, " -> ")
}

// FindCycle walks the component edges from start depth first and returns the
// first cycle reachable from it, closed with its starting id.
func (g *RecipeGraph) FindCycle(start uint) []uint {
	visiting := make(map[uint]bool)
	done := make(map[uint]bool)
	var path []uint

	var visit func(id uint) []uint
	visit = func(id uint) []uint {
		visiting[id] = true
		path = append(path, id)

		if n, ok := g.nodes[id]; ok {
			for _, c := range n.Components {
				child := c.SubRecipeID
				if visiting[child] {
					for i, p := range path {
						if p == child {
							cycle := append([]uint(nil), path[i:]...)
							return append(cycle, child)
						}
					}
				}
				if done[child] {
					continue
				}
				if cycle := visit(child); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		visiting[id] = false
		done[id] = true
		return nil
	}
	return visit(start)
}

// Validate returns a CyclicCompositionError for the first cycle in the graph.
func (g *RecipeGraph) Validate() error {
	for _, id := range g.IDs() {
		if cycle := g.FindCycle(id); cycle != nil {
			return &CyclicCompositionError{Path: cycle}
		}
	}
	return nil
}

// RecipeCost is the derived cost of a recipe.
type RecipeCost struct {
	IngredientCost float64 `json:"ingredient_cost"`
	ComponentCost  float64 `json:"component_cost"`
	TotalCost      float64 `json:"total_cost"`
	CostPerServing float64 `json:"cost_per_serving"`
}

// IngredientLineCost is one priced ingredient line.
type IngredientLineCost struct {
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	PricePerUnit float64 `json:"price_per_unit"`
	Cost         float64 `json:"cost"`
}

// ComponentLineCost is one priced sub-recipe line.
type ComponentLineCost struct {
	SubRecipeID    uint    `json:"sub_recipe_id"`
	Quantity       float64 `json:"quantity"`
	CostPerServing float64 `json:"cost_per_serving"`
	Cost           float64 `json:"cost"`
}

// RecipeBreakdown is a recipe cost with its per-line detail.
type RecipeBreakdown struct {
	RecipeCost
	Ingredients []IngredientLineCost `json:"ingredients"`
	Components  []ComponentLineCost  `json:"components"`
}

// Calculator costs recipes of one graph. Results are memoized per recipe, so
// a shared sub-recipe is costed once. Not safe for concurrent use.
type Calculator struct {
	graph    *RecipeGraph
	memo     map[uint]RecipeCost
	visiting map[uint]bool
	path     []uint
}

func NewCalculator(g *RecipeGraph) *Calculator {
	return &Calculator{
		graph:    g,
		memo:     make(map[uint]RecipeCost),
		visiting: make(map[uint]bool),
	}
}

// Cost returns the total cost and cost per serving of a recipe, including
// every nested sub-recipe. Unknown recipes cost zero.
func (c *Calculator) Cost(id uint) (RecipeCost, error) {
	if cost, ok := c.memo[id]; ok {
		return cost, nil
	}
	n, ok := c.graph.nodes[id]
	if !ok {
		return RecipeCost{}, nil
	}
	if c.visiting[id] {
		return RecipeCost{}, c.cycleError(id)
	}

	c.visiting[id] = true
	c.path = append(c.path, id)
	defer func() {
		c.path = c.path[:len(c.path)-1]
		c.visiting[id] = false
	}()

	var cost RecipeCost
	for _, line := range n.Ingredients {
		cost.IngredientCost += ingredientLineCost(line)
	}
	for _, comp := range n.Components {
		sub, err := c.Cost(comp.SubRecipeID)
		if err != nil {
			return RecipeCost{}, err
		}
		cost.ComponentCost += sub.CostPerServing * comp.Quantity
	}
	cost.TotalCost = cost.IngredientCost + cost.ComponentCost
	cost.CostPerServing = cost.TotalCost / servingsDivisor(n.Servings)

	c.memo[id] = cost
	return cost, nil
}

// Breakdown costs a recipe and returns the priced lines next to the totals.
func (c *Calculator) Breakdown(id uint) (RecipeBreakdown, error) {
	cost, err := c.Cost(id)
	if err != nil {
		return RecipeBreakdown{}, err
	}
	out := RecipeBreakdown{
		RecipeCost:  cost,
		Ingredients: []IngredientLineCost{},
		Components:  []ComponentLineCost{},
	}
	n, ok := c.graph.nodes[id]
	if !ok {
		return out, nil
	}
	for _, line := range n.Ingredients {
		out.Ingredients = append(out.Ingredients, IngredientLineCost{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			PricePerUnit: line.PricePerUnit,
			Cost:         ingredientLineCost(line),
		})
	}
	for _, comp := range n.Components {
		sub, err := c.Cost(comp.SubRecipeID)
		if err != nil {
			return RecipeBreakdown{}, err
		}
		out.Components = append(out.Components, ComponentLineCost{
			SubRecipeID:    comp.SubRecipeID,
			Quantity:       comp.Quantity,
			CostPerServing: sub.CostPerServing,
			Cost:           sub.CostPerServing * comp.Quantity,
		})
	}
	return out, nil
}

func (c *Calculator) cycleError(id uint) error {
	for i, p := range c.path {
		if p == id {
			cycle := append([]uint(nil), c.path[i:]...)
			return &CyclicCompositionError{Path: append(cycle, id)}
		}
	}
	return &CyclicCompositionError{Path: []uint{id, id}}
}

func ingredientLineCost(line IngredientLine) float64 {
	if line.Missing {
		return 0
	}
	return line.Quantity * line.PricePerUnit
}

func servingsDivisor(servings int) float64 {
	if servings <= 0 {
		return 1
	}
	return float64(servings)
}
