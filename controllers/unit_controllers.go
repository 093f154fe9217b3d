package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type UnitController struct {
	DB      *gorm.DB
	service *services.UnitService
}

func NewUnitController(db *gorm.DB) *UnitController {
	return &UnitController{DB: db, service: services.NewUnitService(db)}
}

func (uc *UnitController) GetAllUnits(c *gin.Context) {
	units, err := uc.service.List(currentOrgID(c), c.Query("group"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of units", units)
}

func (uc *UnitController) GetUnitByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	unit, err := uc.service.Get(currentOrgID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unit detail", unit)
}

func (uc *UnitController) CreateUnit(c *gin.Context) {
	var input services.UnitInput
	if !bindJSON(c, &input) {
		return
	}
	unit, err := uc.service.Create(currentOrgID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Unit created", unit)
}

func (uc *UnitController) UpdateUnit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input services.UnitInput
	if !bindJSON(c, &input) {
		return
	}
	unit, err := uc.service.Update(currentOrgID(c), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unit updated", unit)
}

func (uc *UnitController) DeleteUnit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := uc.service.Delete(currentOrgID(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unit deleted", nil)
}

func (uc *UnitController) SeedDefaults(c *gin.Context) {
	added, err := uc.service.SeedDefaults(currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Default units seeded", gin.H{"added": added})
}

func (uc *UnitController) CheckUnits(c *gin.Context) {
	issues, err := uc.service.Check(currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unit catalog check", gin.H{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}

// conversionQuery reads from, to and the optional package_size (default 1).
func conversionQuery(c *gin.Context) (from, to string, packageSize float64, ok bool) {
	from, to = c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("from and to are required"))
		return "", "", 0, false
	}
	packageSize = 1
	if raw := c.Query("package_size"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid package_size"))
			return "", "", 0, false
		}
		packageSize = v
	}
	return from, to, packageSize, true
}

func (uc *UnitController) GetConversion(c *gin.Context) {
	from, to, packageSize, ok := conversionQuery(c)
	if !ok {
		return
	}
	conv, err := uc.service.Convert(currentOrgID(c), from, to, packageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Conversion rate", conv)
}

func (uc *UnitController) GetLegacyConversion(c *gin.Context) {
	from, to, packageSize, ok := conversionQuery(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Conversion rate", services.LegacyConvert(from, to, packageSize))
}
