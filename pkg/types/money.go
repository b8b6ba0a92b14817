package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money helpers. Rows store integer cents; the HTTP surface speaks decimal
// strings. Conversion happens exactly once at the boundary so totals can never
// drift from the stored line items.

var centsFactor = decimal.NewFromInt(100)

// CentsFromDecimal converts a decimal amount (e.g. "20.00") into integer cents.
// Amounts with sub-cent precision or negative values are rejected.
func CentsFromDecimal(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative")
	}
	scaled := amount.Mul(centsFactor)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has sub-cent precision", amount)
	}
	return scaled.IntPart(), nil
}

// ParseCents parses a decimal string into integer cents.
func ParseCents(raw string) (int64, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return CentsFromDecimal(amount)
}

// DecimalFromCents renders integer cents as a two-place decimal.
func DecimalFromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(centsFactor)
}

// FormatCents renders integer cents as a fixed two-place string, e.g. "40.00".
func FormatCents(cents int64) string {
	return DecimalFromCents(cents).StringFixed(2)
}
