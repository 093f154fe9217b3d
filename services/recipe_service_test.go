package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/hpp-app/costing"
	"github.com/yeremiapane/hpp-app/models"
	"gorm.io/gorm"
)

type recipeFixture struct {
	db          *gorm.DB
	org         models.Organization
	ingredients *IngredientService
	recipes     *RecipeService
	flour       *IngredientView
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	db := setupTestDB(t)
	f := &recipeFixture{
		db:          db,
		org:         seedOrg(t, db, "Dapur Bunda"),
		ingredients: NewIngredientService(db, nil),
		recipes:     NewRecipeService(db),
	}
	f.flour = createFlour(t, f.ingredients, f.org.ID)
	return f
}

func (f *recipeFixture) create(t *testing.T, name string, servings int, grams float64, comps ...RecipeComponentInput) *RecipeView {
	t.Helper()
	in := RecipeInput{Name: strPtr(name), Servings: intPtr(servings)}
	if grams > 0 {
		in.Ingredients = &[]RecipeIngredientInput{{IngredientID: f.flour.ID, Quantity: grams}}
	}
	if len(comps) > 0 {
		in.Components = &comps
	}
	r, err := f.recipes.Create(f.org.ID, in)
	require.NoError(t, err)
	return r
}

func TestRecipeCostPerServing(t *testing.T) {
	f := newRecipeFixture(t)

	r := f.create(t, "Roti Tawar", 10, 200)

	assert.InDelta(t, 7000, r.IngredientCost, 1e-9)
	assert.InDelta(t, 7000, r.TotalCost, 1e-9)
	assert.InDelta(t, 700, r.CostPerServing, 1e-9)
	require.Len(t, r.Ingredients, 1)
	assert.Equal(t, "Tepung Terigu", r.Ingredients[0].Name)
	assert.InDelta(t, 35, r.Ingredients[0].PricePerUnit, 1e-9)
	assert.InDelta(t, 7000, r.Ingredients[0].Cost, 1e-9)

	// cost follows the ingredient price
	_, err := f.ingredients.Update(f.org.ID, f.flour.ID, IngredientInput{PurchasePrice: floatPtr(70000)})
	require.NoError(t, err)
	again, err := f.recipes.Get(f.org.ID, r.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1400, again.CostPerServing, 1e-9)
}

func TestRecipeNestedComponents(t *testing.T) {
	f := newRecipeFixture(t)

	// 100 gram tepung = 3500 per porsi
	base := f.create(t, "Adonan Dasar", 1, 100)
	mid := f.create(t, "Adonan Isi", 2, 0, RecipeComponentInput{SubRecipeID: base.ID, Quantity: 2})
	top := f.create(t, "Roti Isi", 1, 0, RecipeComponentInput{SubRecipeID: mid.ID, Quantity: 3})

	assert.InDelta(t, 7000, mid.TotalCost, 1e-9)
	assert.InDelta(t, 3500, mid.CostPerServing, 1e-9)
	assert.InDelta(t, 10500, top.ComponentCost, 1e-9)
	assert.InDelta(t, 10500, top.CostPerServing, 1e-9)
	require.Len(t, top.Components, 1)
	assert.Equal(t, "Adonan Isi", top.Components[0].Name)
}

func TestRecipeRejectsCycles(t *testing.T) {
	f := newRecipeFixture(t)

	a := f.create(t, "A", 1, 100)
	b := f.create(t, "B", 1, 0, RecipeComponentInput{SubRecipeID: a.ID, Quantity: 1})

	_, err := f.recipes.Update(f.org.ID, a.ID, RecipeInput{
		Components: &[]RecipeComponentInput{{SubRecipeID: b.ID, Quantity: 1}},
	})
	var cycle *costing.CyclicCompositionError
	require.True(t, errors.As(err, &cycle), "expected cycle error, got %v", err)
	assert.Equal(t, []uint{a.ID, b.ID, a.ID}, cycle.Path)

	_, err = f.recipes.Update(f.org.ID, a.ID, RecipeInput{
		Components: &[]RecipeComponentInput{{SubRecipeID: a.ID, Quantity: 1}},
	})
	assert.True(t, errors.As(err, &cycle))

	// nothing was written
	unchanged, err := f.recipes.Get(f.org.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, unchanged.Components)
	assert.InDelta(t, 3500, unchanged.TotalCost, 1e-9)
}

func TestRecipeLineReplacementIsAtomic(t *testing.T) {
	f := newRecipeFixture(t)
	r := f.create(t, "Kue", 4, 200)

	_, err := f.recipes.Update(f.org.ID, r.ID, RecipeInput{
		Name: strPtr("Kue Baru"),
		Ingredients: &[]RecipeIngredientInput{
			{IngredientID: f.flour.ID, Quantity: 50},
			{IngredientID: 9999, Quantity: 1},
		},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	got, err := f.recipes.Get(f.org.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kue", got.Name)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, 200.0, got.Ingredients[0].Quantity)

	updated, err := f.recipes.Update(f.org.ID, r.ID, RecipeInput{
		Ingredients: &[]RecipeIngredientInput{{IngredientID: f.flour.ID, Quantity: 40}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Ingredients, 1)
	assert.InDelta(t, 350, updated.CostPerServing, 1e-9)

	_, err = f.recipes.Update(f.org.ID, r.ID, RecipeInput{
		Ingredients: &[]RecipeIngredientInput{{IngredientID: f.flour.ID, Quantity: 0}},
	})
	assert.True(t, errors.As(err, &verr))
	_, err = f.recipes.Update(f.org.ID, r.ID, RecipeInput{Servings: intPtr(0)})
	assert.True(t, errors.As(err, &verr))
}

func TestRecipeDeleteInUse(t *testing.T) {
	f := newRecipeFixture(t)
	menus := NewMenuService(f.db)

	base := f.create(t, "Sambal", 5, 50)
	parent := f.create(t, "Ayam Penyet", 1, 0, RecipeComponentInput{SubRecipeID: base.ID, Quantity: 1})

	err := f.recipes.Delete(f.org.ID, base.ID)
	var inUse *InUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, int64(1), inUse.Count)

	_, err = menus.Create(f.org.ID, MenuInput{
		Name:         strPtr("Paket Ayam"),
		SellingPrice: floatPtr(25000),
		Recipes:      &[]MenuRecipeInput{{RecipeID: parent.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	err = f.recipes.Delete(f.org.ID, parent.ID)
	require.True(t, errors.As(err, &inUse))
	assert.Contains(t, err.Error(), "menu")
}

func TestRecipeTenantIsolation(t *testing.T) {
	f := newRecipeFixture(t)
	other := seedOrg(t, f.db, "Resto Lain")
	r := f.create(t, "Rahasia", 1, 10)

	_, err := f.recipes.Get(other.ID, r.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	// another organization cannot use the ingredient or the recipe
	_, err = f.recipes.Create(other.ID, RecipeInput{
		Name:        strPtr("Curian"),
		Ingredients: &[]RecipeIngredientInput{{IngredientID: f.flour.ID, Quantity: 1}},
	})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	_, err = f.recipes.Create(other.ID, RecipeInput{
		Name:       strPtr("Curian"),
		Components: &[]RecipeComponentInput{{SubRecipeID: r.ID, Quantity: 1}},
	})
	assert.True(t, errors.As(err, &verr))

	list, err := f.recipes.List(other.ID, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecipeDuplicateAndSearch(t *testing.T) {
	f := newRecipeFixture(t)
	base := f.create(t, "Bumbu Dasar", 2, 100)
	r := f.create(t, "Nasi Goreng", 2, 200, RecipeComponentInput{SubRecipeID: base.ID, Quantity: 1})

	dup, err := f.recipes.Duplicate(f.org.ID, r.ID)
	require.NoError(t, err)
	assert.NotEqual(t, r.ID, dup.ID)
	assert.Equal(t, "Nasi Goreng (Copy)", dup.Name)
	assert.Len(t, dup.Ingredients, 1)
	assert.Len(t, dup.Components, 1)
	assert.InDelta(t, r.TotalCost, dup.TotalCost, 1e-9)

	found, err := f.recipes.List(f.org.ID, "nasi")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
