package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/costing"
	"github.com/yeremiapane/hpp-app/middlewares"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
)

func currentOrgID(c *gin.Context) uint {
	return c.GetUint(middlewares.ContextOrganizationID)
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(middlewares.ContextUserID)
}

// parseID reads a numeric path parameter and answers 400 when it is not one.
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid "+param))
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var (
		notFound   *services.NotFoundError
		inUse      *services.InUseError
		validation *services.ValidationError
		cycle      *costing.CyclicCompositionError
	)
	switch {
	case errors.As(err, &notFound), errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &inUse), errors.As(err, &validation), errors.As(err, &cycle):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Internal errors are
// logged and hidden from the client.
func respondServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		utils.ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
		utils.RespondError(c, code, errors.New("internal server error"))
		return
	}
	utils.RespondError(c, code, err)
}
