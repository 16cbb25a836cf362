// Package money holds the arithmetic shared by pricing, vouchers and the catalog.
//
// Amounts at rest are int64 minor units (cents). Intermediate math runs on
// decimal.Decimal and is only rounded when converted back to cents.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits shown to shoppers.
const Places = 2

var hundred = decimal.NewFromInt(100)

// FromCents lifts an amount in cents into a decimal major-unit value.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// ToCents rounds a major-unit amount half away from zero and returns cents.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Round(Places).Shift(Places).IntPart()
}

// FromFloat converts a catalog price such as 9.99 into cents.
func FromFloat(amount float64) int64 {
	return ToCents(decimal.NewFromFloat(amount))
}

// Percent returns pct percent of amount without rounding.
func Percent(amount decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// Round2 rounds an amount to the presentation precision.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Places)
}

// ClampZero returns amount or zero when amount is negative, and whether it clamped.
func ClampZero(amount decimal.Decimal) (decimal.Decimal, bool) {
	if amount.IsNegative() {
		return decimal.Zero, true
	}
	return amount, false
}

// UndiscountedPrice reverses a percentage discount: price / (1 - pct/100).
// A discount of 100% or more has no finite original price and returns price unchanged.
func UndiscountedPrice(price decimal.Decimal, discountPct decimal.Decimal) decimal.Decimal {
	remaining := decimal.NewFromInt(1).Sub(discountPct.Div(hundred))
	if !remaining.IsPositive() {
		return price
	}
	return Round2(price.Div(remaining))
}

// Format renders cents as a fixed two-digit amount, e.g. 1999 -> "19.99".
func Format(cents int64) string {
	return FromCents(cents).StringFixed(Places)
}

// FormatWithSymbol renders cents with a leading currency symbol.
func FormatWithSymbol(symbol string, cents int64) string {
	return fmt.Sprintf("%s%s", symbol, Format(cents))
}
