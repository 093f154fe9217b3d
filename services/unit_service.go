package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yeremiapane/hpp-app/costing"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

type UnitService struct {
	db *gorm.DB
}

func NewUnitService(db *gorm.DB) *UnitService {
	return &UnitService{db: db}
}

type UnitInput struct {
	Name           *string  `json:"name"`
	Group          *string  `json:"group"`
	BaseValue      *float64 `json:"base_value"`
	IsBaseUnit     *bool    `json:"is_base_unit"`
	IsPurchaseUnit *bool    `json:"is_purchase_unit"`
	IsUsageUnit    *bool    `json:"is_usage_unit"`
}

// Conversion is the result of resolving a factor between two units.
type Conversion struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	PackageSize float64 `json:"package_size"`
	Factor      float64 `json:"factor"`
	Compatible  bool    `json:"compatible"`
}

func (s *UnitService) List(orgID uint, group string) ([]models.Unit, error) {
	q := s.db.Where("organization_id = ?", orgID)
	if group != "" {
		q = q.Where("unit_group = ?", group)
	}
	var units []models.Unit
	if err := q.Order("unit_group").Order("base_value").Order("name").Find(&units).Error; err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

func (s *UnitService) Get(orgID, id uint) (*models.Unit, error) {
	var unit models.Unit
	if err := s.db.Where("organization_id = ?", orgID).First(&unit, id).Error; err != nil {
		return nil, notFound(err, "unit", id)
	}
	return &unit, nil
}

func (s *UnitService) Create(orgID uint, in UnitInput) (*models.Unit, error) {
	unit := models.Unit{OrganizationID: orgID}
	if err := applyUnitInput(&unit, in); err != nil {
		return nil, err
	}
	if unit.Name == "" {
		return nil, invalid("name", "is required")
	}
	if unit.Group == "" {
		return nil, invalid("group", "is required")
	}
	if unit.BaseValue == 0 {
		return nil, invalid("base_value", "is required")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUnitNameFree(tx, orgID, unit.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(&unit).Error; err != nil {
			return fmt.Errorf("failed to create unit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Unit %s created for organization %d", unit.Name, orgID)
	return &unit, nil
}

func (s *UnitService) Update(orgID, id uint, in UnitInput) (*models.Unit, error) {
	var unit models.Unit
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", orgID).First(&unit, id).Error; err != nil {
			return notFound(err, "unit", id)
		}
		oldName := unit.Name
		if err := applyUnitInput(&unit, in); err != nil {
			return err
		}
		if unit.Name != oldName {
			if err := ensureUnitNameFree(tx, orgID, unit.Name, unit.ID); err != nil {
				return err
			}
			used, err := countUnitUsage(tx, orgID, oldName)
			if err != nil {
				return err
			}
			if used > 0 {
				return invalid("name", "cannot rename unit used by %d ingredient(s)", used)
			}
		}
		if err := tx.Save(&unit).Error; err != nil {
			return fmt.Errorf("failed to update unit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (s *UnitService) Delete(orgID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var unit models.Unit
		if err := tx.Where("organization_id = ?", orgID).First(&unit, id).Error; err != nil {
			return notFound(err, "unit", id)
		}
		used, err := countUnitUsage(tx, orgID, unit.Name)
		if err != nil {
			return err
		}
		if used > 0 {
			return &InUseError{Entity: "unit", UsedBy: "ingredient(s)", Count: used}
		}
		if err := tx.Delete(&unit).Error; err != nil {
			return fmt.Errorf("failed to delete unit: %w", err)
		}
		return nil
	})
}

// SeedDefaults inserts the default units the organization does not have yet
// and returns how many were added.
func (s *UnitService) SeedDefaults(orgID uint) (int, error) {
	var added int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		n, err := seedDefaultUnits(tx, orgID)
		added = n
		return err
	})
	return added, err
}

func seedDefaultUnits(tx *gorm.DB, orgID uint) (int, error) {
	var existing []string
	if err := tx.Model(&models.Unit{}).Where("organization_id = ?", orgID).Pluck("name", &existing).Error; err != nil {
		return 0, fmt.Errorf("failed to load units: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[strings.ToLower(name)] = true
	}

	var missing []models.Unit
	for _, d := range costing.DefaultUnits() {
		if have[d.Name] {
			continue
		}
		missing = append(missing, models.Unit{
			OrganizationID: orgID,
			Name:           d.Name,
			Group:          string(d.Group),
			BaseValue:      d.BaseValue,
			IsBaseUnit:     d.IsBaseUnit,
			IsPurchaseUnit: d.IsPurchaseUnit,
			IsUsageUnit:    d.IsUsageUnit,
		})
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := tx.Create(&missing).Error; err != nil {
		return 0, fmt.Errorf("failed to seed units: %w", err)
	}
	return len(missing), nil
}

// Resolver builds a conversion resolver over the organization's catalog.
func (s *UnitService) Resolver(orgID uint) (*costing.CatalogResolver, error) {
	return catalogResolver(s.db, orgID)
}

func catalogResolver(db *gorm.DB, orgID uint) (*costing.CatalogResolver, error) {
	var units []models.Unit
	if err := db.Where("organization_id = ?", orgID).Find(&units).Error; err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	defs := make([]costing.UnitDef, 0, len(units))
	for _, u := range units {
		defs = append(defs, u.Def())
	}
	return costing.NewCatalogResolver(defs), nil
}

func (s *UnitService) Convert(orgID uint, from, to string, packageSize float64) (Conversion, error) {
	r, err := s.Resolver(orgID)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{
		From:        from,
		To:          to,
		PackageSize: packageSize,
		Factor:      r.Resolve(from, to, packageSize),
		Compatible:  r.Compatible(from, to),
	}, nil
}

// LegacyConvert resolves against the built-in unit table.
func LegacyConvert(from, to string, packageSize float64) Conversion {
	return Conversion{
		From:        from,
		To:          to,
		PackageSize: packageSize,
		Factor:      costing.LegacyResolver{}.Resolve(from, to, packageSize),
		Compatible:  costing.LegacyCompatible(from, to),
	}
}

// Check reports unit groups that do not have exactly one base unit of value 1.
func (s *UnitService) Check(orgID uint) ([]costing.BaseUnitIssue, error) {
	units, err := s.List(orgID, "")
	if err != nil {
		return nil, err
	}
	catalog := make([]costing.CatalogUnit, 0, len(units))
	for _, u := range units {
		catalog = append(catalog, u.CatalogUnit())
	}
	return costing.CheckBaseUnits(catalog), nil
}

func applyUnitInput(unit *models.Unit, in UnitInput) error {
	if in.Name != nil {
		name := strings.ToLower(strings.TrimSpace(*in.Name))
		if name == "" {
			return invalid("name", "must not be empty")
		}
		unit.Name = name
	}
	if in.Group != nil {
		g := costing.UnitGroup(strings.ToLower(strings.TrimSpace(*in.Group)))
		if !g.Valid() {
			return invalid("group", "must be one of mass, volume, count")
		}
		unit.Group = string(g)
	}
	if in.BaseValue != nil {
		if *in.BaseValue <= 0 {
			return invalid("base_value", "must be greater than 0")
		}
		unit.BaseValue = *in.BaseValue
	}
	if in.IsBaseUnit != nil {
		unit.IsBaseUnit = *in.IsBaseUnit
	}
	if in.IsPurchaseUnit != nil {
		unit.IsPurchaseUnit = *in.IsPurchaseUnit
	}
	if in.IsUsageUnit != nil {
		unit.IsUsageUnit = *in.IsUsageUnit
	}
	return nil
}

func ensureUnitNameFree(tx *gorm.DB, orgID uint, name string, exceptID uint) error {
	var other models.Unit
	err := tx.Where("organization_id = ? AND name = ? AND id <> ?", orgID, name, exceptID).First(&other).Error
	if err == nil {
		return invalid("name", "unit %q already exists", name)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check unit name: %w", err)
}

func countUnitUsage(tx *gorm.DB, orgID uint, name string) (int64, error) {
	var n int64
	err := tx.Model(&models.Ingredient{}).
		Where("organization_id = ? AND (LOWER(purchase_unit) = ? OR LOWER(usage_unit) = ?)", orgID, name, name).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to check unit usage: %w", err)
	}
	return n, nil
}
