package costing

import "github.com/shopspring/decimal"

// MarginTiers are the target margins offered as suggested selling prices.
var MarginTiers = []float64{20, 30, 40, 50, 60, 70}

// PriceRounding is the step suggested prices are rounded up to. Rupiah prices
// are quoted in round thousands.
const PriceRounding = 1000

// SuggestedPrice is a selling price reaching a target margin over hpp.
type SuggestedPrice struct {
	Margin float64 `json:"margin"`
	Price  float64 `json:"price"`
	Profit float64 `json:"profit"`
}

// SuggestPrices returns, for every margin tier, hpp / (1 - margin) rounded up
// to the next thousand. Decimal arithmetic keeps exact quotients such as
// 1400 / 0.7 from spilling over into the next thousand.
func SuggestPrices(hpp float64) []SuggestedPrice {
	cost := decimal.NewFromFloat(hpp)
	step := decimal.NewFromInt(PriceRounding)
	hundred := decimal.NewFromInt(100)

	out := make([]SuggestedPrice, 0, len(MarginTiers))
	for _, m := range MarginTiers {
		keep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(m).Div(hundred))
		price := cost.Div(keep).Div(step).Ceil().Mul(step)
		p, _ := price.Float64()
		out = append(out, SuggestedPrice{
			Margin: m,
			Price:  p,
			Profit: p - hpp,
		})
	}
	return out
}
