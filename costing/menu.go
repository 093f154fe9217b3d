package costing

// MenuLine is Quantity servings of a recipe going into one menu item.
type MenuLine struct {
	RecipeID       uint
	Quantity       float64
	CostPerServing float64
}

// MenuCost is the derived cost and profitability of a menu item.
type MenuCost struct {
	TotalCost    float64 `json:"total_cost"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profit_margin"`
}

// CalculateMenuCost sums the weighted recipe costs and derives profit against
// the selling price. A negative profit is returned as is.
func CalculateMenuCost(sellingPrice float64, lines []MenuLine) MenuCost {
	var total float64
	for _, l := range lines {
		total += l.CostPerServing * l.Quantity
	}
	profit := sellingPrice - total
	return MenuCost{
		TotalCost:    total,
		Profit:       profit,
		ProfitMargin: Margin(profit, sellingPrice),
	}
}

// Margin is profit as a percentage of price, 0 when price is not positive.
func Margin(profit, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return profit / price * 100
}
