package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrencyIDR formats an amount in Indonesian Rupiah notation.
// Example: 15000.50 -> "Rp 15.000,50", 35000 -> "Rp 35.000"
func FormatCurrencyIDR(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	integer := d.Truncate(0)
	fraction := d.Sub(integer).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	out := "Rp " + sign + groupThousands(integer.String())
	if fraction > 0 {
		out += fmt.Sprintf(",%02d", fraction)
	}
	return out
}

func groupThousands(digits string) string {
	var parts []string
	for i := len(digits); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		parts = append([]string{digits[start:i]}, parts...)
	}
	return strings.Join(parts, ".")
}
