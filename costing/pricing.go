package costing

// PricePerUsageUnit normalizes a purchase price into the cost of one usage
// unit. Yield is clamped to [1, 100]; a non-positive conversion rate means the
// cost is unknown and yields 0.
func PricePerUsageUnit(purchasePrice, conversionRate, yieldPercentage float64) float64 {
	if conversionRate <= 0 {
		return 0
	}
	effective := conversionRate * (ClampYield(yieldPercentage) / 100)
	return purchasePrice / effective
}

// ClampYield bounds a yield percentage to [1, 100].
func ClampYield(yieldPercentage float64) float64 {
	if yieldPercentage < 1 {
		return 1
	}
	if yieldPercentage > 100 {
		return 100
	}
	return yieldPercentage
}

// Pricing is how an ingredient's cost per usage unit is obtained.
type Pricing interface {
	PricePerUnit() float64
	Kind() string
}

const (
	PricingLegacy     = "legacy"
	PricingStructured = "structured"
)

// LegacyFlatPrice is the stored per-unit price of ingredients created before
// purchase pricing existed. No yield adjustment applies.
type LegacyFlatPrice struct {
	PerUnit float64
}

func (p LegacyFlatPrice) PricePerUnit() float64 { return p.PerUnit }
func (LegacyFlatPrice) Kind() string            { return PricingLegacy }

// StructuredPurchasePricing derives the per-unit price from what was paid.
type StructuredPurchasePricing struct {
	Price          float64
	ConversionRate float64
	Yield          float64
}

func (p StructuredPurchasePricing) PricePerUnit() float64 {
	return PricePerUsageUnit(p.Price, p.ConversionRate, p.Yield)
}

func (StructuredPurchasePricing) Kind() string { return PricingStructured }

// PricingFrom picks the variant from the raw ingredient fields. Purchase price
// and conversion rate must both be set for structured pricing.
func PricingFrom(purchasePrice, conversionRate *float64, yieldPercentage, legacyPricePerUnit float64) Pricing {
	if purchasePrice == nil || conversionRate == nil {
		return LegacyFlatPrice{PerUnit: legacyPricePerUnit}
	}
	return StructuredPurchasePricing{
		Price:          *purchasePrice,
		ConversionRate: *conversionRate,
		Yield:          yieldPercentage,
	}
}

// UpgradeLegacy converts a flat price into structured pricing that yields the
// same per-unit price: one purchase unit equals one usage unit, full yield.
func UpgradeLegacy(p LegacyFlatPrice) StructuredPurchasePricing {
	return StructuredPurchasePricing{Price: p.PerUnit, ConversionRate: 1, Yield: 100}
}
