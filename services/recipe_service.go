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

type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

type RecipeIngredientInput struct {
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
}

type RecipeComponentInput struct {
	SubRecipeID uint    `json:"sub_recipe_id"`
	Quantity    float64 `json:"quantity"`
}

// RecipeInput is a create or partial update. A non-nil line slice replaces
// all existing lines of that kind.
type RecipeInput struct {
	Name        *string                  `json:"name"`
	Description *string                  `json:"description"`
	Servings    *int                     `json:"servings"`
	Ingredients *[]RecipeIngredientInput `json:"ingredients"`
	Components  *[]RecipeComponentInput  `json:"components"`
}

type RecipeIngredientView struct {
	models.RecipeIngredient
	Name         string  `json:"name"`
	UsageUnit    string  `json:"usage_unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	Cost         float64 `json:"cost"`
	Missing      bool    `json:"missing,omitempty"`
}

type RecipeComponentView struct {
	models.RecipeComponent
	Name           string  `json:"name"`
	CostPerServing float64 `json:"cost_per_serving"`
	Cost           float64 `json:"cost"`
}

// RecipeView is a recipe with its per-line cost breakdown and totals.
type RecipeView struct {
	ID          uint                   `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Servings    int                    `json:"servings"`
	Ingredients []RecipeIngredientView `json:"ingredients"`
	Components  []RecipeComponentView  `json:"components"`
	costing.RecipeCost
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *costSnapshot) recipeView(r models.Recipe) (RecipeView, error) {
	breakdown, err := s.calc.Breakdown(r.ID)
	if err != nil {
		return RecipeView{}, err
	}

	view := RecipeView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Servings:    r.Servings,
		Ingredients: make([]RecipeIngredientView, 0, len(r.Ingredients)),
		Components:  make([]RecipeComponentView, 0, len(r.Components)),
		RecipeCost:  breakdown.RecipeCost,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	for i, line := range r.Ingredients {
		ing, ok := s.ingredients[line.IngredientID]
		lc := breakdown.Ingredients[i]
		view.Ingredients = append(view.Ingredients, RecipeIngredientView{
			RecipeIngredient: line,
			Name:             ing.Name,
			UsageUnit:        ing.UsageUnit,
			PricePerUnit:     lc.PricePerUnit,
			Cost:             lc.Cost,
			Missing:          !ok,
		})
	}
	for i, line := range r.Components {
		lc := breakdown.Components[i]
		view.Components = append(view.Components, RecipeComponentView{
			RecipeComponent: line,
			Name:            s.recipeName(line.SubRecipeID),
			CostPerServing:  lc.CostPerServing,
			Cost:            lc.Cost,
		})
	}
	return view, nil
}

func (s *RecipeService) List(orgID uint, search string) ([]RecipeView, error) {
	snap, err := loadCostSnapshot(s.db, orgID)
	if err != nil {
		return nil, err
	}
	views := make([]RecipeView, 0, snap.graph.Len())
	for _, id := range snap.graph.IDs() {
		r := snap.recipes[id]
		if search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(search)) {
			continue
		}
		view, err := snap.recipeView(r)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *RecipeService) Get(orgID, id uint) (*RecipeView, error) {
	snap, err := loadCostSnapshot(s.db, orgID)
	if err != nil {
		return nil, err
	}
	r, ok := snap.recipes[id]
	if !ok {
		return nil, &NotFoundError{Entity: "recipe", ID: id}
	}
	view, err := snap.recipeView(r)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *RecipeService) Create(orgID uint, in RecipeInput) (*RecipeView, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "is required")
	}
	recipe := models.Recipe{OrganizationID: orgID, Servings: 1}
	if err := applyRecipeFields(&recipe, in); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Ingredients", "Components").Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return replaceRecipeLines(tx, orgID, recipe.ID, in)
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Recipe %s created for organization %d", recipe.Name, orgID)
	return s.Get(orgID, recipe.ID)
}

func (s *RecipeService) Update(orgID, id uint, in RecipeInput) (*RecipeView, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Where("organization_id = ?", orgID).First(&recipe, id).Error; err != nil {
			return notFound(err, "recipe", id)
		}
		if err := applyRecipeFields(&recipe, in); err != nil {
			return err
		}
		if err := tx.Omit("Ingredients", "Components").Save(&recipe).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		return replaceRecipeLines(tx, orgID, recipe.ID, in)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orgID, id)
}

// Delete removes a recipe and its lines. Recipes still used as a component or
// by a menu are kept.
func (s *RecipeService) Delete(orgID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Where("organization_id = ?", orgID).First(&recipe, id).Error; err != nil {
			return notFound(err, "recipe", id)
		}

		var asComponent int64
		if err := tx.Model(&models.RecipeComponent{}).
			Where("sub_recipe_id = ? AND recipe_id <> ?", id, id).
			Count(&asComponent).Error; err != nil {
			return fmt.Errorf("failed to check recipe usage: %w", err)
		}
		if asComponent > 0 {
			return &InUseError{Entity: "recipe", UsedBy: "recipe component(s)", Count: asComponent}
		}
		var inMenus int64
		if err := tx.Model(&models.MenuRecipe{}).Where("recipe_id = ?", id).Count(&inMenus).Error; err != nil {
			return fmt.Errorf("failed to check recipe usage: %w", err)
		}
		if inMenus > 0 {
			return &InUseError{Entity: "recipe", UsedBy: "menu line(s)", Count: inMenus}
		}

		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to delete recipe ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeComponent{}).Error; err != nil {
			return fmt.Errorf("failed to delete recipe components: %w", err)
		}
		if err := tx.Delete(&recipe).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		utils.InfoLogger.Printf("Recipe %d deleted from organization %d", id, orgID)
		return nil
	})
}

// Duplicate copies a recipe with all its lines under a new name.
func (s *RecipeService) Duplicate(orgID, id uint) (*RecipeView, error) {
	var copyID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var src models.Recipe
		if err := tx.Where("organization_id = ?", orgID).
			Preload("Ingredients").Preload("Components").
			First(&src, id).Error; err != nil {
			return notFound(err, "recipe", id)
		}

		dup := models.Recipe{
			OrganizationID: orgID,
			Name:           src.Name + " (Copy)",
			Description:    src.Description,
			Servings:       src.Servings,
		}
		if err := tx.Omit("Ingredients", "Components").Create(&dup).Error; err != nil {
			return fmt.Errorf("failed to duplicate recipe: %w", err)
		}
		for _, line := range src.Ingredients {
			row := models.RecipeIngredient{RecipeID: dup.ID, IngredientID: line.IngredientID, Quantity: line.Quantity}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to duplicate recipe ingredients: %w", err)
			}
		}
		for _, line := range src.Components {
			row := models.RecipeComponent{RecipeID: dup.ID, SubRecipeID: line.SubRecipeID, Quantity: line.Quantity}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to duplicate recipe components: %w", err)
			}
		}
		copyID = dup.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orgID, copyID)
}

func applyRecipeFields(r *models.Recipe, in RecipeInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalid("name", "must not be empty")
		}
		r.Name = name
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.Servings != nil {
		if *in.Servings < 1 {
			return invalid("servings", "must be at least 1")
		}
		r.Servings = *in.Servings
	}
	return nil
}

// replaceRecipeLines swaps the ingredient and component lines given in the
// input. The component graph is checked for cycles before anything is
// written.
func replaceRecipeLines(tx *gorm.DB, orgID, recipeID uint, in RecipeInput) error {
	if in.Ingredients != nil {
		if err := validateIngredientLines(tx, orgID, *in.Ingredients); err != nil {
			return err
		}
	}
	if in.Components != nil {
		if err := validateComponentLines(tx, orgID, recipeID, *in.Components); err != nil {
			return err
		}
	}

	if in.Ingredients != nil {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to replace recipe ingredients: %w", err)
		}
		for _, line := range *in.Ingredients {
			row := models.RecipeIngredient{RecipeID: recipeID, IngredientID: line.IngredientID, Quantity: line.Quantity}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to replace recipe ingredients: %w", err)
			}
		}
	}
	if in.Components != nil {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeComponent{}).Error; err != nil {
			return fmt.Errorf("failed to replace recipe components: %w", err)
		}
		for _, line := range *in.Components {
			row := models.RecipeComponent{RecipeID: recipeID, SubRecipeID: line.SubRecipeID, Quantity: line.Quantity}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to replace recipe components: %w", err)
			}
		}
	}
	return nil
}

func validateIngredientLines(tx *gorm.DB, orgID uint, lines []RecipeIngredientInput) error {
	ids := make([]uint, 0, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return invalid(fmt.Sprintf("ingredients[%d].quantity", i), "must be greater than 0")
		}
		ids = append(ids, line.IngredientID)
	}
	missing, err := missingIDs(tx, &models.Ingredient{}, orgID, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return invalid("ingredients", "ingredient %d not found", missing[0])
	}
	return nil
}

func validateComponentLines(tx *gorm.DB, orgID, recipeID uint, lines []RecipeComponentInput) error {
	ids := make([]uint, 0, len(lines))
	comps := make([]costing.ComponentLine, 0, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return invalid(fmt.Sprintf("components[%d].quantity", i), "must be greater than 0")
		}
		ids = append(ids, line.SubRecipeID)
		comps = append(comps, costing.ComponentLine{SubRecipeID: line.SubRecipeID, Quantity: line.Quantity})
	}
	missing, err := missingIDs(tx, &models.Recipe{}, orgID, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return invalid("components", "recipe %d not found", missing[0])
	}

	graph, err := loadComponentGraph(tx, orgID)
	if err != nil {
		return err
	}
	graph.SetComponents(recipeID, comps)
	if cycle := graph.FindCycle(recipeID); cycle != nil {
		return &costing.CyclicCompositionError{Path: cycle}
	}
	return nil
}

// loadComponentGraph loads only the component edges of an organization.
func loadComponentGraph(tx *gorm.DB, orgID uint) (*costing.RecipeGraph, error) {
	var edges []models.RecipeComponent
	if err := tx.Joins("JOIN recipes ON recipes.id = recipe_components.recipe_id").
		Where("recipes.organization_id = ?", orgID).
		Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipe components: %w", err)
	}
	byRecipe := make(map[uint][]costing.ComponentLine)
	for _, e := range edges {
		byRecipe[e.RecipeID] = append(byRecipe[e.RecipeID], costing.ComponentLine{SubRecipeID: e.SubRecipeID, Quantity: e.Quantity})
	}
	graph := costing.NewRecipeGraph()
	for id, comps := range byRecipe {
		graph.SetComponents(id, comps)
	}
	return graph, nil
}

// missingIDs returns the ids that have no row of model in the organization.
func missingIDs(tx *gorm.DB, model interface{}, orgID uint, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := tx.Model(model).Where("organization_id = ? AND id IN ?", orgID, ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to check references: %w", err)
	}
	have := make(map[uint]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	var missing []uint
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
