package render

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/komsit37/mdash/pkg/mdash/columns"
	"github.com/komsit37/mdash/pkg/mdash/metrics"
)

// NA is printed for absent values.
const NA = "N/A"

// Money formats v in the given currency, rounded to the currency's minor
// unit. Unknown currencies fall back to a plain grouped number.
func Money(currency string, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA
	}
	cur := money.GetCurrency(currency)
	if cur == nil {
		return columns.FormatFloat(v, 2)
	}
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(v).Mul(factor).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// MoneyPtr is Money for an optional value.
func MoneyPtr(currency string, v *float64) string {
	if v == nil {
		return NA
	}
	return Money(currency, *v)
}

// Percent formats a signed percentage with two decimals.
func Percent(v *float64) string {
	if v == nil {
		return NA
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

// Number formats an optional value with the given decimals.
func Number(v *float64, decimals int) string {
	if v == nil {
		return NA
	}
	return columns.FormatFloat(*v, decimals)
}

// Value formats a ratio line value with its unit.
func Value(v *float64, unit string) string {
	if v == nil {
		return NA
	}
	switch u := metrics.Unit(unit); u {
	case metrics.Percent, metrics.Multiple, metrics.Billions:
		return columns.FormatFloat(*v, 2) + string(u)
	default:
		return columns.FormatFloat(*v, 2)
	}
}
