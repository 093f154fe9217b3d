package costing

// DefaultUnit is one row of the catalog every new organization starts with.
type DefaultUnit struct {
	UnitDef
	IsBaseUnit     bool
	IsPurchaseUnit bool
	IsUsageUnit    bool
}

// defaultUnits is the single seed table for organization unit catalogs.
var defaultUnits = []DefaultUnit{
	{UnitDef: UnitDef{Name: "gram", Group: GroupMass, BaseValue: 1}, IsBaseUnit: true, IsUsageUnit: true},
	{UnitDef: UnitDef{Name: "mg", Group: GroupMass, BaseValue: 0.001}, IsUsageUnit: true},
	{UnitDef: UnitDef{Name: "ons", Group: GroupMass, BaseValue: 100}, IsPurchaseUnit: true, IsUsageUnit: true},
	{UnitDef: UnitDef{Name: "kg", Group: GroupMass, BaseValue: 1000}, IsPurchaseUnit: true},
	{UnitDef: UnitDef{Name: "karung", Group: GroupMass, BaseValue: 1000}, IsPurchaseUnit: true},

	{UnitDef: UnitDef{Name: "ml", Group: GroupVolume, BaseValue: 1}, IsBaseUnit: true, IsUsageUnit: true},
	{UnitDef: UnitDef{Name: "sdt", Group: GroupVolume, BaseValue: 5}, IsUsageUnit: true},
	{UnitDef: UnitDef{Name: "sdm", Group: GroupVolume, BaseValue: 15}, IsUsageUnit: true},
	{UnitDef: UnitDef{Name: "liter", Group: GroupVolume, BaseValue: 1000}, IsPurchaseUnit: true, IsUsageUnit: true},
	{UnitDef: UnitDef{Name: "botol", Group: GroupVolume, BaseValue: 1}, IsPurchaseUnit: true},

	{UnitDef: UnitDef{Name: "pcs", Group: GroupCount, BaseValue: 1}, IsBaseUnit: true, IsPurchaseUnit: true, IsUsageUnit: true},
	{UnitDef: UnitDef{Name: "butir", Group: GroupCount, BaseValue: 1}, IsPurchaseUnit: true, IsUsageUnit: true},
	{UnitDef: UnitDef{Name: "pack", Group: GroupCount, BaseValue: 1}, IsPurchaseUnit: true},
	{UnitDef: UnitDef{Name: "lusin", Group: GroupCount, BaseValue: 12}, IsPurchaseUnit: true},
}

// DefaultUnits returns a copy of the seed table.
func DefaultUnits() []DefaultUnit {
	out := make([]DefaultUnit, len(defaultUnits))
	copy(out, defaultUnits)
	return out
}

// DefaultUnitDefs returns the seed table without the usage flags.
func DefaultUnitDefs() []UnitDef {
	out := make([]UnitDef, 0, len(defaultUnits))
	for _, u := range defaultUnits {
		out = append(out, u.UnitDef)
	}
	return out
}
