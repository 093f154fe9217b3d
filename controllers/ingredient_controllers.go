package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type IngredientController struct {
	DB      *gorm.DB
	service *services.IngredientService
}

func NewIngredientController(db *gorm.DB, notifier services.Notifier) *IngredientController {
	return &IngredientController{DB: db, service: services.NewIngredientService(db, notifier)}
}

// GetAllIngredients -> filter ?category= dan ?search=
func (ic *IngredientController) GetAllIngredients(c *gin.Context) {
	ingredients, err := ic.service.List(currentOrgID(c), services.IngredientFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of ingredients", ingredients)
}

func (ic *IngredientController) GetIngredientByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ing, err := ic.service.Get(currentOrgID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ingredient detail", ing)
}

func (ic *IngredientController) CreateIngredient(c *gin.Context) {
	var input services.IngredientInput
	if !bindJSON(c, &input) {
		return
	}
	ing, err := ic.service.Create(currentOrgID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Ingredient created", ing)
}

func (ic *IngredientController) UpdateIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input services.IngredientInput
	if !bindJSON(c, &input) {
		return
	}
	ing, err := ic.service.Update(currentOrgID(c), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ingredient updated", ing)
}

func (ic *IngredientController) DeleteIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ic.service.Delete(currentOrgID(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ingredient deleted", nil)
}

func (ic *IngredientController) GetCategories(c *gin.Context) {
	cats, err := ic.service.Categories(currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ingredient categories", cats)
}

func (ic *IngredientController) GetPriceHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	history, err := ic.service.PriceHistory(currentOrgID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Price history", history)
}

func (ic *IngredientController) DeletePriceHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	historyID, ok := parseID(c, "history_id")
	if !ok {
		return
	}
	if err := ic.service.DeletePriceHistory(currentOrgID(c), id, historyID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Price history deleted", nil)
}

func (ic *IngredientController) UpgradePricing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ing, err := ic.service.UpgradePricing(currentOrgID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ingredient pricing upgraded", ing)
}
