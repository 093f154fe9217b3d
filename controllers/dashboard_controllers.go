package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type DashboardController struct {
	DB      *gorm.DB
	stats   *services.DashboardService
	reports *services.ReportService
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{
		DB:      db,
		stats:   services.NewDashboardService(db),
		reports: services.NewReportService(db),
	}
}

func (dc *DashboardController) GetStats(c *gin.Context) {
	stats, err := dc.stats.Stats(currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard statistics", stats)
}

// DownloadHPPReport -> laporan HPP semua menu dalam bentuk PDF
func (dc *DashboardController) DownloadHPPReport(c *gin.Context) {
	pdf, err := dc.reports.HPPReport(currentOrgID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	filename := fmt.Sprintf("hpp-report-%s.pdf", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
