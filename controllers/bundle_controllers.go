package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type BundleController struct {
	DB      *gorm.DB
	service *services.BundleService
}

func NewBundleController(db *gorm.DB) *BundleController {
	return &BundleController{DB: db, service: services.NewBundleService(db)}
}

// GetAllBundles -> ?active=true hanya bundle yang aktif dan masih berlaku
func (bc *BundleController) GetAllBundles(c *gin.Context) {
	bundles, err := bc.service.List(currentOrgID(c), c.Query("active") == "true")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bundles", bundles)
}

func (bc *BundleController) GetBundleByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bundle, err := bc.service.Get(currentOrgID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bundle detail", bundle)
}

func (bc *BundleController) CreateBundle(c *gin.Context) {
	var input services.BundleInput
	if !bindJSON(c, &input) {
		return
	}
	bundle, err := bc.service.Create(currentOrgID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bundle created", bundle)
}

func (bc *BundleController) UpdateBundle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input services.BundleInput
	if !bindJSON(c, &input) {
		return
	}
	bundle, err := bc.service.Update(currentOrgID(c), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bundle updated", bundle)
}

func (bc *BundleController) DeleteBundle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := bc.service.Delete(currentOrgID(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bundle deleted", nil)
}

// CalculateBundle menghitung harga bundle tanpa menyimpannya
func (bc *BundleController) CalculateBundle(c *gin.Context) {
	var input services.CalculateInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := bc.service.Calculate(currentOrgID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bundle calculation", result)
}
