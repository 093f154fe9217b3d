package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type MenuController struct {
	DB      *gorm.DB
	service *services.MenuService
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db, service: services.NewMenuService(db)}
}

// GetAllMenus -> filter ?category= dan ?search=
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	menus, err := mc.service.List(currentOrgID(c), services.MenuFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	menu, err := mc.service.Get(currentOrgID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", menu)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var input services.MenuInput
	if !bindJSON(c, &input) {
		return
	}
	menu, err := mc.service.Create(currentOrgID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created", menu)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input services.MenuInput
	if !bindJSON(c, &input) {
		return
	}
	menu, err := mc.service.Update(currentOrgID(c), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", menu)
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := mc.service.Delete(currentOrgID(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", nil)
}

func (mc *MenuController) GetCategories(c *gin.Context) {
	cats, err := mc.service.Categories(currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu categories", cats)
}
