package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPricePerUsageUnit(t *testing.T) {
	tests := []struct {
		name                  string
		price, rate, yieldPct float64
		want                  float64
	}{
		{"kg bought, gram used", 35000, 1000, 100, 35},
		{"eighty percent yield", 35000, 1000, 80, 43.75},
		{"zero conversion rate is unknown cost", 35000, 0, 100, 0},
		{"negative conversion rate", 35000, -5, 100, 0},
		{"zero price", 0, 1000, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PricePerUsageUnit(tt.price, tt.rate, tt.yieldPct), 1e-9)
		})
	}
}

func TestYieldClamp(t *testing.T) {
	assert.Equal(t, PricePerUsageUnit(35000, 1000, 1), PricePerUsageUnit(35000, 1000, 0))
	assert.Equal(t, PricePerUsageUnit(35000, 1000, 1), PricePerUsageUnit(35000, 1000, -20))
	assert.Equal(t, PricePerUsageUnit(35000, 1000, 100), PricePerUsageUnit(35000, 1000, 150))
	assert.InDelta(t, 3500, PricePerUsageUnit(35000, 1000, 0), 1e-6)
}

func TestPricingFrom(t *testing.T) {
	price, rate := 35000.0, 1000.0

	structured := PricingFrom(&price, &rate, 80, 99)
	assert.Equal(t, PricingStructured, structured.Kind())
	assert.InDelta(t, 43.75, structured.PricePerUnit(), 1e-9)

	// the legacy column is used as is, without yield
	legacy := PricingFrom(nil, &rate, 50, 42)
	assert.Equal(t, PricingLegacy, legacy.Kind())
	assert.Equal(t, 42.0, legacy.PricePerUnit())

	legacy = PricingFrom(&price, nil, 50, 42)
	assert.Equal(t, PricingLegacy, legacy.Kind())
}

func TestUpgradeLegacyKeepsPrice(t *testing.T) {
	flat := LegacyFlatPrice{PerUnit: 12.5}
	upgraded := UpgradeLegacy(flat)
	assert.Equal(t, flat.PricePerUnit(), upgraded.PricePerUnit())
	assert.Equal(t, 100.0, upgraded.Yield)
}
