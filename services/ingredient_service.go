package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/hpp-app/costing"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/notify"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type IngredientService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewIngredientService(db *gorm.DB, notifier Notifier) *IngredientService {
	return &IngredientService{db: db, notifier: notifier}
}

// IngredientInput is a create or partial update. Supplier and Notes only go
// to the price history row written alongside a price change.
type IngredientInput struct {
	Name               *string  `json:"name"`
	Category           *string  `json:"category"`
	PurchaseUnit       *string  `json:"purchase_unit"`
	PurchasePrice      *float64 `json:"purchase_price"`
	PackageSize        *float64 `json:"package_size"`
	UsageUnit          *string  `json:"usage_unit"`
	ConversionRate     *float64 `json:"conversion_rate"`
	YieldPercentage    *float64 `json:"yield_percentage"`
	LegacyPricePerUnit *float64 `json:"price_per_unit"`
	LegacyUnit         *string  `json:"unit"`
	Supplier           *string  `json:"supplier"`
	Notes              *string  `json:"notes"`
}

// IngredientView is an ingredient with its derived price per usage unit.
type IngredientView struct {
	models.Ingredient
	PricePerUnit float64 `json:"price_per_unit"`
	PricingKind  string  `json:"pricing_kind"`
}

type IngredientFilter struct {
	Category string
	Search   string
}

func newIngredientView(ing models.Ingredient) IngredientView {
	p := ing.Pricing()
	return IngredientView{Ingredient: ing, PricePerUnit: p.PricePerUnit(), PricingKind: p.Kind()}
}

func (s *IngredientService) List(orgID uint, f IngredientFilter) ([]IngredientView, error) {
	q := s.db.Where("organization_id = ?", orgID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	var ingredients []models.Ingredient
	if err := q.Order("name").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	views := make([]IngredientView, 0, len(ingredients))
	for _, ing := range ingredients {
		views = append(views, newIngredientView(ing))
	}
	return views, nil
}

func (s *IngredientService) Get(orgID, id uint) (*IngredientView, error) {
	var ing models.Ingredient
	if err := s.db.Where("organization_id = ?", orgID).First(&ing, id).Error; err != nil {
		return nil, notFound(err, "ingredient", id)
	}
	view := newIngredientView(ing)
	return &view, nil
}

func (s *IngredientService) Create(orgID uint, in IngredientInput) (*IngredientView, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "is required")
	}
	ing := models.Ingredient{
		OrganizationID:  orgID,
		PackageSize:     1,
		YieldPercentage: 100,
	}
	if err := applyIngredientInput(&ing, in); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if in.ConversionRate == nil {
			if err := fillConversionRate(tx, &ing); err != nil {
				return err
			}
		}
		if err := tx.Create(&ing).Error; err != nil {
			return fmt.Errorf("failed to create ingredient: %w", err)
		}
		if ing.PurchasePrice != nil && *ing.PurchasePrice > 0 {
			return appendPriceHistory(tx, ing, nil, in.Supplier, in.Notes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Ingredient %s created for organization %d", ing.Name, orgID)
	view := newIngredientView(ing)
	return &view, nil
}

func (s *IngredientService) Update(orgID, id uint, in IngredientInput) (*IngredientView, error) {
	var (
		ing      models.Ingredient
		oldPrice *float64
		changed  bool
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", orgID).First(&ing, id).Error; err != nil {
			return notFound(err, "ingredient", id)
		}
		if ing.PurchasePrice != nil {
			p := *ing.PurchasePrice
			oldPrice = &p
		}
		unitsBefore := [3]interface{}{ing.PurchaseUnit, ing.UsageUnit, ing.PackageSize}

		if err := applyIngredientInput(&ing, in); err != nil {
			return err
		}
		unitsAfter := [3]interface{}{ing.PurchaseUnit, ing.UsageUnit, ing.PackageSize}
		if in.ConversionRate == nil && unitsBefore != unitsAfter {
			if err := fillConversionRate(tx, &ing); err != nil {
				return err
			}
		}

		if err := tx.Save(&ing).Error; err != nil {
			return fmt.Errorf("failed to update ingredient: %w", err)
		}

		changed = priceChanged(oldPrice, ing.PurchasePrice)
		if changed {
			return appendPriceHistory(tx, ing, oldPrice, in.Supplier, in.Notes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed && oldPrice != nil {
		s.notifyPriceChange(ing, *oldPrice)
	}
	view := newIngredientView(ing)
	return &view, nil
}

func (s *IngredientService) notifyPriceChange(ing models.Ingredient, oldPrice float64) {
	if s.notifier == nil {
		return
	}
	newPrice := *ing.PurchasePrice
	_, err := s.notifier.Notify(ing.OrganizationID, nil, notify.EventIngredientPriceChanged,
		"Harga bahan berubah",
		fmt.Sprintf("%s: %s", ing.Name, priceNote(&oldPrice, newPrice)),
		map[string]interface{}{
			"ingredient_id": ing.ID,
			"name":          ing.Name,
			"old_price":     oldPrice,
			"new_price":     newPrice,
		})
	if err != nil {
		utils.ErrorLogger.Printf("Failed to notify price change of ingredient %d: %v", ing.ID, err)
	}
}

func (s *IngredientService) Delete(orgID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var ing models.Ingredient
		if err := tx.Where("organization_id = ?", orgID).First(&ing, id).Error; err != nil {
			return notFound(err, "ingredient", id)
		}
		var used int64
		if err := tx.Model(&models.RecipeIngredient{}).Where("ingredient_id = ?", id).Count(&used).Error; err != nil {
			return fmt.Errorf("failed to check ingredient usage: %w", err)
		}
		if used > 0 {
			return &InUseError{Entity: "ingredient", UsedBy: "recipe line(s)", Count: used}
		}
		if err := tx.Where("ingredient_id = ?", id).Delete(&models.PriceHistory{}).Error; err != nil {
			return fmt.Errorf("failed to delete price history: %w", err)
		}
		if err := tx.Delete(&ing).Error; err != nil {
			return fmt.Errorf("failed to delete ingredient: %w", err)
		}
		utils.InfoLogger.Printf("Ingredient %d deleted from organization %d", id, orgID)
		return nil
	})
}

// UpgradePricing moves a legacy ingredient to purchase pricing without
// changing its price per usage unit.
func (s *IngredientService) UpgradePricing(orgID, id uint) (*IngredientView, error) {
	var ing models.Ingredient
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", orgID).First(&ing, id).Error; err != nil {
			return notFound(err, "ingredient", id)
		}
		legacy, ok := ing.Pricing().(costing.LegacyFlatPrice)
		if !ok {
			return invalid("", "ingredient already uses purchase pricing")
		}
		upgraded := costing.UpgradeLegacy(legacy)

		unit := ing.UsageUnit
		if unit == "" {
			unit = ing.LegacyUnit
		}
		price, rate := upgraded.Price, upgraded.ConversionRate
		ing.PurchasePrice = &price
		ing.ConversionRate = &rate
		ing.YieldPercentage = upgraded.Yield
		ing.PackageSize = 1
		ing.PurchaseUnit = unit
		ing.UsageUnit = unit

		if err := tx.Save(&ing).Error; err != nil {
			return fmt.Errorf("failed to upgrade ingredient pricing: %w", err)
		}
		if price > 0 {
			return appendPriceHistory(tx, ing, nil, nil, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := newIngredientView(ing)
	return &view, nil
}

func (s *IngredientService) PriceHistory(orgID, id uint) ([]models.PriceHistory, error) {
	if _, err := s.Get(orgID, id); err != nil {
		return nil, err
	}
	var history []models.PriceHistory
	if err := s.db.Where("organization_id = ? AND ingredient_id = ?", orgID, id).
		Order("recorded_at DESC").Order("id DESC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	return history, nil
}

func (s *IngredientService) DeletePriceHistory(orgID, ingredientID, historyID uint) error {
	res := s.db.Where("organization_id = ? AND ingredient_id = ?", orgID, ingredientID).
		Delete(&models.PriceHistory{}, historyID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete price history: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "price history", ID: historyID}
	}
	return nil
}

// Categories returns the distinct ingredient categories of the organization.
func (s *IngredientService) Categories(orgID uint) ([]string, error) {
	return distinctCategories(s.db.Model(&models.Ingredient{}), orgID)
}

func distinctCategories(q *gorm.DB, orgID uint) ([]string, error) {
	var categories []string
	if err := q.Where("organization_id = ? AND category IS NOT NULL AND category <> ''", orgID).
		Distinct().Pluck("category", &categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	sort.Strings(categories)
	return categories, nil
}

func applyIngredientInput(ing *models.Ingredient, in IngredientInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalid("name", "must not be empty")
		}
		ing.Name = name
	}
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if c == "" {
			ing.Category = nil
		} else {
			ing.Category = &c
		}
	}
	if in.PurchaseUnit != nil {
		ing.PurchaseUnit = strings.TrimSpace(*in.PurchaseUnit)
	}
	if in.UsageUnit != nil {
		ing.UsageUnit = strings.TrimSpace(*in.UsageUnit)
	}
	if in.PurchasePrice != nil {
		if *in.PurchasePrice < 0 {
			return invalid("purchase_price", "must not be negative")
		}
		p := *in.PurchasePrice
		ing.PurchasePrice = &p
	}
	if in.PackageSize != nil {
		if *in.PackageSize <= 0 {
			return invalid("package_size", "must be greater than 0")
		}
		ing.PackageSize = *in.PackageSize
	}
	if in.ConversionRate != nil {
		r := *in.ConversionRate
		ing.ConversionRate = &r
	}
	if in.YieldPercentage != nil {
		ing.YieldPercentage = *in.YieldPercentage
	}
	if in.LegacyPricePerUnit != nil {
		ing.LegacyPricePerUnit = *in.LegacyPricePerUnit
	}
	if in.LegacyUnit != nil {
		ing.LegacyUnit = strings.TrimSpace(*in.LegacyUnit)
	}
	return nil
}

// fillConversionRate derives the conversion rate from the organization's unit
// catalog when both units are known.
func fillConversionRate(tx *gorm.DB, ing *models.Ingredient) error {
	if ing.PurchaseUnit == "" || ing.UsageUnit == "" {
		return nil
	}
	r, err := catalogResolver(tx, ing.OrganizationID)
	if err != nil {
		return err
	}
	rate := r.Resolve(ing.PurchaseUnit, ing.UsageUnit, ing.PackageSize)
	ing.ConversionRate = &rate
	return nil
}

func priceChanged(old, current *float64) bool {
	if current == nil {
		return false
	}
	if old == nil {
		return *current > 0
	}
	return !decimal.NewFromFloat(*old).Equal(decimal.NewFromFloat(*current))
}

// priceNote describes a price change for the history log, e.g.
// "Harga naik Rp 5.000".
func priceNote(old *float64, current float64) string {
	if old == nil {
		return "Harga awal " + utils.FormatCurrencyIDR(current)
	}
	delta := decimal.NewFromFloat(current).Sub(decimal.NewFromFloat(*old))
	amount, _ := delta.Abs().Float64()
	if delta.IsNegative() {
		return "Harga turun " + utils.FormatCurrencyIDR(amount)
	}
	return "Harga naik " + utils.FormatCurrencyIDR(amount)
}

func appendPriceHistory(tx *gorm.DB, ing models.Ingredient, oldPrice *float64, supplier, notes *string) error {
	note := priceNote(oldPrice, *ing.PurchasePrice)
	if notes != nil && strings.TrimSpace(*notes) != "" {
		note = note + " - " + strings.TrimSpace(*notes)
	}
	row := models.PriceHistory{
		OrganizationID: ing.OrganizationID,
		IngredientID:   ing.ID,
		PurchasePrice:  *ing.PurchasePrice,
		PurchaseUnit:   ing.PurchaseUnit,
		Supplier:       supplier,
		Notes:          &note,
		RecordedAt:     time.Now().UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record price history: %w", err)
	}
	return nil
}
