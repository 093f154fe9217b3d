package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type RecipeController struct {
	DB      *gorm.DB
	service *services.RecipeService
}

func NewRecipeController(db *gorm.DB) *RecipeController {
	return &RecipeController{DB: db, service: services.NewRecipeService(db)}
}

func (rc *RecipeController) GetAllRecipes(c *gin.Context) {
	recipes, err := rc.service.List(currentOrgID(c), c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of recipes", recipes)
}

func (rc *RecipeController) GetRecipeByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	recipe, err := rc.service.Get(currentOrgID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recipe detail", recipe)
}

func (rc *RecipeController) CreateRecipe(c *gin.Context) {
	var input services.RecipeInput
	if !bindJSON(c, &input) {
		return
	}
	recipe, err := rc.service.Create(currentOrgID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Recipe created", recipe)
}

func (rc *RecipeController) UpdateRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input services.RecipeInput
	if !bindJSON(c, &input) {
		return
	}
	recipe, err := rc.service.Update(currentOrgID(c), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recipe updated", recipe)
}

func (rc *RecipeController) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := rc.service.Delete(currentOrgID(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recipe deleted", nil)
}

// DuplicateRecipe menyalin resep beserta bahan dan sub-resepnya
func (rc *RecipeController) DuplicateRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	recipe, err := rc.service.Duplicate(currentOrgID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Recipe duplicated", recipe)
}
