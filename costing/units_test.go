package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyResolver(t *testing.T) {
	r := LegacyResolver{}

	tests := []struct {
		name        string
		from, to    string
		packageSize float64
		want        float64
	}{
		{"liter to ml", "liter", "ml", 1, 1000},
		{"kg to gram", "kg", "gram", 1, 1000},
		{"case insensitive", " KG ", "Gram", 1, 1000},
		{"gram to kg", "gram", "kg", 1, 0.001},
		{"lusin to pcs", "lusin", "pcs", 1, 12},
		{"incompatible falls back to package size", "liter", "pcs", 1, 1},
		{"incompatible with package size", "liter", "pcs", 6, 6},
		{"unknown unit", "gallon", "ml", 3, 3},
		{"zero package size falls back to one", "liter", "pcs", 0, 1},
		{"bottle scales by package size", "bottle", "ml", 600, 600},
		{"sack scales by package size", "sack", "kg", 25, 25},
		{"other units ignore package size", "liter", "ml", 6, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, r.Resolve(tt.from, tt.to, tt.packageSize), 1e-9)
		})
	}
}

func TestCatalogResolver(t *testing.T) {
	r := NewCatalogResolver([]UnitDef{
		{Name: "gram", Group: GroupMass, BaseValue: 1},
		{Name: "kg", Group: GroupMass, BaseValue: 1000},
		{Name: "ml", Group: GroupVolume, BaseValue: 1},
		{Name: "botol", Group: GroupVolume, BaseValue: 600},
		{Name: "pcs", Group: GroupCount, BaseValue: 1},
	})

	assert.InDelta(t, 1000, r.Resolve("kg", "gram", 1), 1e-9)
	// every conversion is scaled by package size, not only multi-packs
	assert.InDelta(t, 5000, r.Resolve("kg", "gram", 5), 1e-9)
	assert.InDelta(t, 1200, r.Resolve("botol", "ml", 2), 1e-9)
	assert.InDelta(t, 4, r.Resolve("kg", "pcs", 4), 1e-9)
	assert.InDelta(t, 1, r.Resolve("kg", "unknown", 0), 1e-9)

	assert.True(t, r.Compatible("KG", "gram"))
	assert.False(t, r.Compatible("kg", "ml"))
}

func TestResolverRoundTrip(t *testing.T) {
	legacy := LegacyResolver{}
	for _, a := range LegacyUnits() {
		for _, b := range LegacyUnits() {
			if a.Group != b.Group {
				continue
			}
			product := legacy.Resolve(a.Name, b.Name, 1) * legacy.Resolve(b.Name, a.Name, 1)
			assert.InDelta(t, 1, product, 1e-9, "%s <-> %s", a.Name, b.Name)
		}
	}

	catalog := NewCatalogResolver(DefaultUnitDefs())
	defs := DefaultUnitDefs()
	for _, a := range defs {
		for _, b := range defs {
			if a.Group != b.Group {
				continue
			}
			product := catalog.Resolve(a.Name, b.Name, 1) * catalog.Resolve(b.Name, a.Name, 1)
			assert.InDelta(t, 1, product, 1e-9, "%s <-> %s", a.Name, b.Name)
		}
	}
}

func TestCheckBaseUnits(t *testing.T) {
	units := []CatalogUnit{
		{UnitDef: UnitDef{Name: "gram", Group: GroupMass, BaseValue: 1}, IsBaseUnit: true},
		{UnitDef: UnitDef{Name: "kg", Group: GroupMass, BaseValue: 1000}},
		{UnitDef: UnitDef{Name: "ml", Group: GroupVolume, BaseValue: 1}, IsBaseUnit: true},
		{UnitDef: UnitDef{Name: "liter", Group: GroupVolume, BaseValue: 1000}, IsBaseUnit: true},
		{UnitDef: UnitDef{Name: "pcs", Group: GroupCount, BaseValue: 1}},
	}

	issues := CheckBaseUnits(units)
	if assert.Len(t, issues, 2) {
		assert.Equal(t, GroupVolume, issues[0].Group)
		assert.Equal(t, "more than one base unit", issues[0].Problem)
		assert.Equal(t, GroupCount, issues[1].Group)
		assert.Equal(t, "no base unit", issues[1].Problem)
	}

	var seeded []CatalogUnit
	for _, d := range DefaultUnits() {
		seeded = append(seeded, CatalogUnit{UnitDef: d.UnitDef, IsBaseUnit: d.IsBaseUnit})
	}
	assert.Empty(t, CheckBaseUnits(seeded))
}
