package costing

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// PromotionType is the stored promotion kind of a bundle.
type PromotionType string

const (
	PromoDiscount   PromotionType = "DISCOUNT"
	PromoPercentage PromotionType = "PERCENTAGE"
	PromoFixedPrice PromotionType = "FIXED_PRICE"
	PromoBuy1Get1   PromotionType = "BUY1GET1"
	PromoBuy2Get1   PromotionType = "BUY2GET1"
)

// Promotion turns the undiscounted price of a bundle into its final price.
// paidPrice is the price with free items counted as zero.
type Promotion interface {
	Type() PromotionType
	Apply(originalPrice, paidPrice float64) (discount, finalPrice float64)
}

// NoPromotion passes the original price through.
type NoPromotion struct{}

func (NoPromotion) Type() PromotionType { return "" }
func (NoPromotion) Apply(originalPrice, _ float64) (float64, float64) {
	return 0, originalPrice
}

// FlatDiscount takes a fixed amount off.
type FlatDiscount struct {
	Amount float64
}

func (FlatDiscount) Type() PromotionType { return PromoDiscount }
func (p FlatDiscount) Apply(originalPrice, _ float64) (float64, float64) {
	return p.Amount, originalPrice - p.Amount
}

// PercentageDiscount takes a percentage of the original price off.
type PercentageDiscount struct {
	Percent float64
}

func (PercentageDiscount) Type() PromotionType { return PromoPercentage }
func (p PercentageDiscount) Apply(originalPrice, _ float64) (float64, float64) {
	discount := originalPrice * p.Percent / 100
	return discount, originalPrice - discount
}

// FixedPrice sells the whole bundle at Price.
type FixedPrice struct {
	Price float64
}

func (FixedPrice) Type() PromotionType { return PromoFixedPrice }
func (p FixedPrice) Apply(originalPrice, _ float64) (float64, float64) {
	return originalPrice - p.Price, p.Price
}

// BuyNGetOne charges for every item except the ones marked free. Which items
// are free is decided by the caller.
type BuyNGetOne struct {
	N int
}

func (p BuyNGetOne) Type() PromotionType {
	if p.N == 2 {
		return PromoBuy2Get1
	}
	return PromoBuy1Get1
}

func (BuyNGetOne) Apply(originalPrice, paidPrice float64) (float64, float64) {
	return originalPrice - paidPrice, paidPrice
}

// ErrInvalidPromotion is returned for promotion input that cannot be built.
var ErrInvalidPromotion = errors.New("invalid promotion")

// ParsePromotion builds a promotion from stored fields. Missing discount
// values count as zero; a fixed price bundle needs its price. Unknown types
// fall back to no promotion.
func ParsePromotion(t PromotionType, discountValue, bundlePrice *float64) (Promotion, error) {
	value := func() float64 {
		if discountValue == nil {
			return 0
		}
		return *discountValue
	}
	switch t {
	case PromoDiscount:
		return FlatDiscount{Amount: value()}, nil
	case PromoPercentage:
		return PercentageDiscount{Percent: value()}, nil
	case PromoFixedPrice:
		if bundlePrice == nil {
			return nil, fmt.Errorf("%w: %s requires bundle_price", ErrInvalidPromotion, t)
		}
		return FixedPrice{Price: *bundlePrice}, nil
	case PromoBuy1Get1:
		return BuyNGetOne{N: 1}, nil
	case PromoBuy2Get1:
		return BuyNGetOne{N: 2}, nil
	default:
		return NoPromotion{}, nil
	}
}

// BundleItem is one menu line of a bundle.
type BundleItem struct {
	MenuID       uint    `json:"menu_id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	IsFree       bool    `json:"is_free"`
	SellingPrice float64 `json:"selling_price"`
	HPP          float64 `json:"hpp"`
}

// BundleItemResult is an item with its subtotals.
type BundleItemResult struct {
	BundleItem
	SubtotalHPP   float64 `json:"subtotal_hpp"`
	SubtotalPrice float64 `json:"subtotal_price"`
}

// BundleResult is the priced bundle.
type BundleResult struct {
	Items           []BundleItemResult `json:"items"`
	PromotionType   PromotionType      `json:"promotion_type"`
	TotalHPP        float64            `json:"total_hpp"`
	OriginalPrice   float64            `json:"original_price"`
	Discount        float64            `json:"discount"`
	FinalPrice      float64            `json:"final_price"`
	Profit          float64            `json:"profit"`
	ProfitMargin    float64            `json:"profit_margin"`
	SuggestedPrices []SuggestedPrice   `json:"suggested_prices"`
}

// CalculateBundle prices a bundle. The original price ignores free flags;
// negative discounts or final prices are returned as entered.
func CalculateBundle(items []BundleItem, promo Promotion) BundleResult {
	if promo == nil {
		promo = NoPromotion{}
	}
	res := BundleResult{
		Items:         make([]BundleItemResult, 0, len(items)),
		PromotionType: promo.Type(),
	}

	var paid float64
	for _, it := range items {
		r := BundleItemResult{
			BundleItem:  it,
			SubtotalHPP: it.HPP * it.Quantity,
		}
		if !it.IsFree {
			r.SubtotalPrice = it.SellingPrice * it.Quantity
		}
		res.TotalHPP += r.SubtotalHPP
		res.OriginalPrice += it.SellingPrice * it.Quantity
		paid += r.SubtotalPrice
		res.Items = append(res.Items, r)
	}

	res.Discount, res.FinalPrice = promo.Apply(res.OriginalPrice, paid)
	res.Profit = res.FinalPrice - res.TotalHPP
	res.ProfitMargin = Margin(res.Profit, res.FinalPrice)
	res.SuggestedPrices = SuggestPrices(res.TotalHPP)
	return res
}

// MarkFreeItems applies buy-n-get-one to whole units: units are ordered by
// selling price, highest first, and every (n+1)th unit is free, so the
// cheapest unit of each group is the free one. Items may be split into a
// paid and a free line. Fractional quantities are rounded down to whole units
// and the remainder stays paid.
func MarkFreeItems(items []BundleItem, n int) []BundleItem {
	if n < 1 {
		return append([]BundleItem(nil), items...)
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].SellingPrice > items[order[b]].SellingPrice
	})

	// units of item i take positions [start, start+q) in the price order;
	// every position p with (p+1) divisible by n+1 is free
	group := float64(n + 1)
	free := make([]float64, len(items))
	var start float64
	for _, i := range order {
		q := math.Floor(items[i].Quantity)
		if q <= 0 {
			continue
		}
		free[i] = math.Floor((start+q)/group) - math.Floor(start/group)
		start += q
	}

	out := make([]BundleItem, 0, len(items))
	for i, it := range items {
		paid := it
		paid.IsFree = false
		paid.Quantity = it.Quantity - free[i]
		if paid.Quantity > 0 {
			out = append(out, paid)
		}
		if free[i] > 0 {
			f := it
			f.IsFree = true
			f.Quantity = free[i]
			out = append(out, f)
		}
	}
	return out
}
