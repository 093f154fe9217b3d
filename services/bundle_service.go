package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/hpp-app/costing"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type BundleService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBundleService(db *gorm.DB) *BundleService {
	return &BundleService{db: db, now: time.Now}
}

type BundleItemInput struct {
	MenuID   uint    `json:"menu_id"`
	Quantity float64 `json:"quantity"`
	IsFree   bool    `json:"is_free"`
}

type BundleInput struct {
	Name          *string            `json:"name"`
	Description   *string            `json:"description"`
	PromotionType *string            `json:"promotion_type"`
	DiscountValue *float64           `json:"discount_value"`
	BundlePrice   *float64           `json:"bundle_price"`
	ValidFrom     *time.Time         `json:"valid_from"`
	ValidUntil    *time.Time         `json:"valid_until"`
	IsActive      *bool              `json:"is_active"`
	Items         *[]BundleItemInput `json:"items"`
}

// CalculateInput is a bundle priced without being stored. With AutoMarkFree
// the free items of a buy-n-get-one promotion are picked automatically and
// the IsFree flags of the input are ignored.
type CalculateInput struct {
	Items         []BundleItemInput `json:"items"`
	PromotionType string            `json:"promotion_type"`
	DiscountValue *float64          `json:"discount_value"`
	BundlePrice   *float64          `json:"bundle_price"`
	AutoMarkFree  bool              `json:"auto_mark_free"`
}

// BundleView is a stored bundle with its calculated pricing.
type BundleView struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	DiscountValue    *float64   `json:"discount_value"`
	BundlePrice      *float64   `json:"bundle_price"`
	ValidFrom        *time.Time `json:"valid_from"`
	ValidUntil       *time.Time `json:"valid_until"`
	IsActive         bool       `json:"is_active"`
	IsCurrentlyValid bool       `json:"is_currently_valid"`
	costing.BundleResult
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var knownPromotions = map[costing.PromotionType]bool{
	costing.PromoDiscount:   true,
	costing.PromoPercentage: true,
	costing.PromoFixedPrice: true,
	costing.PromoBuy1Get1:   true,
	costing.PromoBuy2Get1:   true,
}

// menuPricing loads the selling price and HPP of the given menus.
func menuPricing(db *gorm.DB, orgID uint, ids []uint) (map[uint]MenuView, error) {
	menus, err := loadMenus(db, orgID, ids...)
	if err != nil {
		return nil, err
	}
	snap, err := loadCostSnapshot(db, orgID)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]MenuView, len(menus))
	for _, m := range menus {
		view, err := snap.menuView(m)
		if err != nil {
			return nil, err
		}
		out[m.ID] = view
	}
	return out, nil
}

func bundleItems(lines []BundleItemInput, menus map[uint]MenuView) []costing.BundleItem {
	items := make([]costing.BundleItem, 0, len(lines))
	for _, line := range lines {
		m := menus[line.MenuID]
		items = append(items, costing.BundleItem{
			MenuID:       line.MenuID,
			Name:         m.Name,
			Quantity:     line.Quantity,
			IsFree:       line.IsFree,
			SellingPrice: m.SellingPrice,
			HPP:          m.TotalCost,
		})
	}
	return items
}

func (s *BundleService) view(b models.MenuBundle, menus map[uint]MenuView) BundleView {
	lines := make([]BundleItemInput, 0, len(b.Items))
	for _, it := range b.Items {
		lines = append(lines, BundleItemInput{MenuID: it.MenuID, Quantity: it.Quantity, IsFree: it.IsFree})
	}
	promo, err := costing.ParsePromotion(costing.PromotionType(b.PromotionType), b.DiscountValue, b.BundlePrice)
	if err != nil {
		// stored rows predating validation are priced without promotion
		promo = costing.NoPromotion{}
	}
	result := costing.CalculateBundle(bundleItems(lines, menus), promo)
	result.PromotionType = costing.PromotionType(b.PromotionType)

	return BundleView{
		ID:               b.ID,
		Name:             b.Name,
		Description:      b.Description,
		DiscountValue:    b.DiscountValue,
		BundlePrice:      b.BundlePrice,
		ValidFrom:        b.ValidFrom,
		ValidUntil:       b.ValidUntil,
		IsActive:         b.IsActive,
		IsCurrentlyValid: b.IsCurrentlyValid(s.now()),
		BundleResult:     result,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func (s *BundleService) List(orgID uint, activeOnly bool) ([]BundleView, error) {
	q := s.db.Where("organization_id = ?", orgID).Preload("Items")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var bundles []models.MenuBundle
	if err := q.Order("name").Order("id").Find(&bundles).Error; err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	menus, err := menuPricing(s.db, orgID, nil)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]BundleView, 0, len(bundles))
	for _, b := range bundles {
		// activeOnly juga membuang bundle di luar masa berlaku
		if activeOnly && !b.IsCurrentlyValid(now) {
			continue
		}
		views = append(views, s.view(b, menus))
	}
	return views, nil
}

func (s *BundleService) Get(orgID, id uint) (*BundleView, error) {
	var bundle models.MenuBundle
	if err := s.db.Where("organization_id = ?", orgID).Preload("Items").First(&bundle, id).Error; err != nil {
		return nil, notFound(err, "bundle", id)
	}
	ids := make([]uint, 0, len(bundle.Items))
	for _, it := range bundle.Items {
		ids = append(ids, it.MenuID)
	}
	menus := map[uint]MenuView{}
	if len(ids) > 0 {
		var err error
		if menus, err = menuPricing(s.db, orgID, ids); err != nil {
			return nil, err
		}
	}
	view := s.view(bundle, menus)
	return &view, nil
}

func (s *BundleService) Create(orgID uint, in BundleInput) (*BundleView, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if in.PromotionType == nil {
		return nil, invalid("promotion_type", "is required")
	}
	if in.Items == nil || len(*in.Items) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	bundle := models.MenuBundle{OrganizationID: orgID, IsActive: true}
	applyBundleFields(&bundle, in)
	if err := validateBundle(bundle); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(&bundle).Error; err != nil {
			return fmt.Errorf("failed to create bundle: %w", err)
		}
		return replaceBundleItems(tx, orgID, bundle.ID, *in.Items)
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Bundle %s created for organization %d", bundle.Name, orgID)
	return s.Get(orgID, bundle.ID)
}

func (s *BundleService) Update(orgID, id uint, in BundleInput) (*BundleView, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "must not be empty")
	}
	if in.Items != nil && len(*in.Items) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var bundle models.MenuBundle
		if err := tx.Where("organization_id = ?", orgID).First(&bundle, id).Error; err != nil {
			return notFound(err, "bundle", id)
		}
		applyBundleFields(&bundle, in)
		if err := validateBundle(bundle); err != nil {
			return err
		}
		if err := tx.Omit("Items").Save(&bundle).Error; err != nil {
			return fmt.Errorf("failed to update bundle: %w", err)
		}
		if in.Items == nil {
			return nil
		}
		return replaceBundleItems(tx, orgID, bundle.ID, *in.Items)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orgID, id)
}

func (s *BundleService) Delete(orgID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var bundle models.MenuBundle
		if err := tx.Where("organization_id = ?", orgID).First(&bundle, id).Error; err != nil {
			return notFound(err, "bundle", id)
		}
		if err := tx.Where("bundle_id = ?", id).Delete(&models.MenuBundleItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete bundle items: %w", err)
		}
		if err := tx.Delete(&bundle).Error; err != nil {
			return fmt.Errorf("failed to delete bundle: %w", err)
		}
		return nil
	})
}

// Calculate prices a bundle from the organization's menus without storing
// anything.
func (s *BundleService) Calculate(orgID uint, in CalculateInput) (*costing.BundleResult, error) {
	if len(in.Items) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	ids := make([]uint, 0, len(in.Items))
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
		}
		ids = append(ids, it.MenuID)
	}
	// preview FIXED_PRICE tanpa harga: harga akhir sama dengan harga asli
	previewOnly := costing.PromotionType(in.PromotionType) == costing.PromoFixedPrice && in.BundlePrice == nil
	var promo costing.Promotion
	if !previewOnly {
		var err error
		promo, err = costing.ParsePromotion(costing.PromotionType(in.PromotionType), in.DiscountValue, in.BundlePrice)
		if err != nil {
			return nil, invalid("bundle_price", "%v", err)
		}
	}

	menus, err := menuPricing(s.db, orgID, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := menus[id]; !ok {
			return nil, invalid("items", "menu %d not found", id)
		}
	}

	items := bundleItems(in.Items, menus)
	if bng, ok := promo.(costing.BuyNGetOne); ok && in.AutoMarkFree {
		items = costing.MarkFreeItems(items, bng.N)
	}
	if previewOnly {
		var original float64
		for _, it := range items {
			original += it.SellingPrice * it.Quantity
		}
		promo = costing.FixedPrice{Price: original}
	}
	result := costing.CalculateBundle(items, promo)
	return &result, nil
}

func applyBundleFields(b *models.MenuBundle, in BundleInput) {
	if in.Name != nil {
		b.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.PromotionType != nil {
		b.PromotionType = strings.ToUpper(strings.TrimSpace(*in.PromotionType))
	}
	if in.DiscountValue != nil {
		v := *in.DiscountValue
		b.DiscountValue = &v
	}
	if in.BundlePrice != nil {
		v := *in.BundlePrice
		b.BundlePrice = &v
	}
	if in.ValidFrom != nil {
		t := *in.ValidFrom
		b.ValidFrom = &t
	}
	if in.ValidUntil != nil {
		t := *in.ValidUntil
		b.ValidUntil = &t
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
}

func validateBundle(b models.MenuBundle) error {
	t := costing.PromotionType(b.PromotionType)
	if !knownPromotions[t] {
		return invalid("promotion_type", "unknown promotion type %q", b.PromotionType)
	}
	if _, err := costing.ParsePromotion(t, b.DiscountValue, b.BundlePrice); err != nil {
		if errors.Is(err, costing.ErrInvalidPromotion) {
			return invalid("bundle_price", "is required for %s", t)
		}
		return err
	}
	if b.ValidFrom != nil && b.ValidUntil != nil && b.ValidUntil.Before(*b.ValidFrom) {
		return invalid("valid_until", "must not be before valid_from")
	}
	return nil
}

func replaceBundleItems(tx *gorm.DB, orgID, bundleID uint, items []BundleItemInput) error {
	ids := make([]uint, 0, len(items))
	for i, it := range items {
		if it.Quantity <= 0 {
			return invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
		}
		ids = append(ids, it.MenuID)
	}
	missing, err := missingIDs(tx, &models.Menu{}, orgID, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return invalid("items", "menu %d not found", missing[0])
	}

	if err := tx.Where("bundle_id = ?", bundleID).Delete(&models.MenuBundleItem{}).Error; err != nil {
		return fmt.Errorf("failed to replace bundle items: %w", err)
	}
	for _, it := range items {
		row := models.MenuBundleItem{BundleID: bundleID, MenuID: it.MenuID, Quantity: it.Quantity, IsFree: it.IsFree}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to replace bundle items: %w", err)
		}
	}
	return nil
}
