package split

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var centsPerUnit = decimal.NewFromInt(100)

// Cents converts an exact amount to integer cents, rounding half away from
// zero. This is the display rounding; grand totals go through
// DistributeRemainder instead.
func Cents(amount decimal.Decimal) int64 {
	return amount.Mul(centsPerUnit).Round(0).IntPart()
}

// FromCents converts integer cents back to a two-decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatCurrency renders integer cents using the currency's own symbol and
// separator conventions, e.g. 123456 cents of USD as "$1,234.56".
func FormatCurrency(cents int64, currency string) string {
	return money.New(cents, currency).Display()
}
