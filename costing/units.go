package costing

import "strings"

// UnitGroup is the physical dimension a unit measures.
type UnitGroup string

const (
	GroupMass   UnitGroup = "mass"
	GroupVolume UnitGroup = "volume"
	GroupCount  UnitGroup = "count"
)

// Valid reports whether g is one of the known groups.
func (g UnitGroup) Valid() bool {
	switch g {
	case GroupMass, GroupVolume, GroupCount:
		return true
	}
	return false
}

// UnitDef describes one unit: how many of its group's base unit (gram,
// milliliter, piece) a single unit equals.
type UnitDef struct {
	Name      string    `json:"name"`
	Group     UnitGroup `json:"group"`
	BaseValue float64   `json:"base_value"`
}

// legacyUnits is the hard-coded table used before organizations had their own
// catalog. bottle is counted in ml and sack in kg, the real content of one
// pack comes from the ingredient's package size.
var legacyUnits = []UnitDef{
	{Name: "mg", Group: GroupMass, BaseValue: 0.001},
	{Name: "gram", Group: GroupMass, BaseValue: 1},
	{Name: "g", Group: GroupMass, BaseValue: 1},
	{Name: "ons", Group: GroupMass, BaseValue: 100},
	{Name: "kg", Group: GroupMass, BaseValue: 1000},
	{Name: "sack", Group: GroupMass, BaseValue: 1000},

	{Name: "ml", Group: GroupVolume, BaseValue: 1},
	{Name: "sdt", Group: GroupVolume, BaseValue: 5},
	{Name: "sdm", Group: GroupVolume, BaseValue: 15},
	{Name: "cup", Group: GroupVolume, BaseValue: 240},
	{Name: "liter", Group: GroupVolume, BaseValue: 1000},
	{Name: "l", Group: GroupVolume, BaseValue: 1000},
	{Name: "bottle", Group: GroupVolume, BaseValue: 1},

	{Name: "pcs", Group: GroupCount, BaseValue: 1},
	{Name: "butir", Group: GroupCount, BaseValue: 1},
	{Name: "pack", Group: GroupCount, BaseValue: 1},
	{Name: "lusin", Group: GroupCount, BaseValue: 12},
}

// multiPackUnits get their factor scaled by the package size in the legacy
// resolver only.
var multiPackUnits = map[string]bool{
	"bottle": true,
	"sack":   true,
}

var legacyIndex = func() map[string]UnitDef {
	idx := make(map[string]UnitDef, len(legacyUnits))
	for _, u := range legacyUnits {
		idx[u.Name] = u
	}
	return idx
}()

// LegacyUnits returns a copy of the static unit table.
func LegacyUnits() []UnitDef {
	out := make([]UnitDef, len(legacyUnits))
	copy(out, legacyUnits)
	return out
}

func normalizeUnitName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func fallbackFactor(packageSize float64) float64 {
	if packageSize <= 0 {
		return 1
	}
	return packageSize
}

// ConversionResolver turns a purchase unit into a usage unit factor. It never
// fails: units it cannot relate degrade to the package size.
type ConversionResolver interface {
	Resolve(fromUnit, toUnit string, packageSize float64) float64
}

// LegacyResolver resolves against the static unit table.
type LegacyResolver struct{}

// Resolve returns how many toUnit are contained in one fromUnit. Only the
// multi-pack units are scaled by packageSize.
func (LegacyResolver) Resolve(fromUnit, toUnit string, packageSize float64) float64 {
	from, okFrom := legacyIndex[normalizeUnitName(fromUnit)]
	to, okTo := legacyIndex[normalizeUnitName(toUnit)]
	if !okFrom || !okTo || from.Group != to.Group || to.BaseValue <= 0 {
		return fallbackFactor(packageSize)
	}

	factor := from.BaseValue / to.BaseValue
	if multiPackUnits[from.Name] {
		factor *= fallbackFactor(packageSize)
	}
	return factor
}

// LegacyCompatible reports whether both units are in the static table and
// share a group.
func LegacyCompatible(fromUnit, toUnit string) bool {
	from, okFrom := legacyIndex[normalizeUnitName(fromUnit)]
	to, okTo := legacyIndex[normalizeUnitName(toUnit)]
	return okFrom && okTo && from.Group == to.Group
}

// CatalogResolver resolves against an organization's own unit catalog.
type CatalogResolver struct {
	units map[string]UnitDef
}

// NewCatalogResolver indexes the given units by normalized name. Later
// duplicates win.
func NewCatalogResolver(units []UnitDef) *CatalogResolver {
	idx := make(map[string]UnitDef, len(units))
	for _, u := range units {
		idx[normalizeUnitName(u.Name)] = u
	}
	return &CatalogResolver{units: idx}
}

// Resolve multiplies every same-group conversion by packageSize.
func (r *CatalogResolver) Resolve(fromUnit, toUnit string, packageSize float64) float64 {
	from, okFrom := r.units[normalizeUnitName(fromUnit)]
	to, okTo := r.units[normalizeUnitName(toUnit)]
	if !okFrom || !okTo || from.Group != to.Group || to.BaseValue <= 0 {
		return fallbackFactor(packageSize)
	}
	return from.BaseValue / to.BaseValue * fallbackFactor(packageSize)
}

// Compatible reports whether both units exist in the catalog and share a group.
func (r *CatalogResolver) Compatible(fromUnit, toUnit string) bool {
	from, okFrom := r.units[normalizeUnitName(fromUnit)]
	to, okTo := r.units[normalizeUnitName(toUnit)]
	return okFrom && okTo && from.Group == to.Group
}

// BaseUnitIssue describes a group that does not have exactly one base unit
// with base value 1.
type BaseUnitIssue struct {
	Group     UnitGroup `json:"group"`
	BaseUnits []string  `json:"base_units"`
	Problem   string    `json:"problem"`
}

// CatalogUnit is the view of a catalog row needed to check base units.
type CatalogUnit struct {
	UnitDef
	IsBaseUnit bool
}

// CheckBaseUnits reports every group in the catalog that breaks the
// one-base-unit rule. Nothing is enforced, callers decide what to do.
func CheckBaseUnits(units []CatalogUnit) []BaseUnitIssue {
	groups := []UnitGroup{GroupMass, GroupVolume, GroupCount}
	base := make(map[UnitGroup][]CatalogUnit)
	present := make(map[UnitGroup]bool)
	for _, u := range units {
		present[u.Group] = true
		if u.IsBaseUnit {
			base[u.Group] = append(base[u.Group], u)
		}
	}

	var issues []BaseUnitIssue
	for _, g := range groups {
		if !present[g] {
			continue
		}
		names := make([]string, 0, len(base[g]))
		for _, u := range base[g] {
			names = append(names, u.Name)
		}
		switch {
		case len(base[g]) == 0:
			issues = append(issues, BaseUnitIssue{Group: g, BaseUnits: names, Problem: "no base unit"})
		case len(base[g]) > 1:
			issues = append(issues, BaseUnitIssue{Group: g, BaseUnits: names, Problem: "more than one base unit"})
		case base[g][0].BaseValue != 1:
			issues = append(issues, BaseUnitIssue{Group: g, BaseUnits: names, Problem: "base unit value is not 1"})
		}
	}
	return issues
}
