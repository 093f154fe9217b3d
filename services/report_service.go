package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

var hppColumns = []struct {
	title string
	width float64
	align string
}{
	{"Menu", 60, "L"},
	{"HPP", 32, "R"},
	{"Harga Jual", 32, "R"},
	{"Laba", 32, "R"},
	{"Margin", 24, "R"},
}

// HPPReport renders the cost sheet of every menu as a PDF.
func (s *ReportService) HPPReport(orgID uint) ([]byte, error) {
	var org models.Organization
	if err := s.db.First(&org, orgID).Error; err != nil {
		return nil, notFound(err, "organization", orgID)
	}
	menus, err := loadMenus(s.db, orgID)
	if err != nil {
		return nil, err
	}
	snap, err := loadCostSnapshot(s.db, orgID)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Laporan HPP "+org.Name, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Laporan HPP - "+org.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Dibuat "+time.Now().Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range hppColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, m := range menus {
		view, err := snap.menuView(m)
		if err != nil {
			return nil, err
		}
		cells := []string{
			view.Name,
			utils.FormatCurrencyIDR(view.TotalCost),
			utils.FormatCurrencyIDR(view.SellingPrice),
			utils.FormatCurrencyIDR(view.Profit),
			fmt.Sprintf("%.1f%%", view.ProfitMargin),
		}
		if view.Profit < 0 {
			pdf.SetTextColor(200, 0, 0)
		}
		for i, col := range hppColumns {
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(-1)
	}
	if len(menus) == 0 {
		pdf.CellFormat(0, 6, "Belum ada menu", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
