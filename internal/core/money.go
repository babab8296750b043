// Package core holds the domain model shared by the import pipeline and the
// reporting engine: entities, monetary parsing and the error taxonomy.
//
// All monetary values are exact decimals with four digits of scale. They are
// never summed as binary floats; only final percentage outputs leave the
// decimal domain.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal digits carried by monetary values,
// matching the DECIMAL(16,4) columns at rest.
const AmountScale = 4

// ParseAmount converts a spreadsheet cell into an exact decimal amount.
//
// Surrounding whitespace and non-breaking spaces are stripped, inner spaces
// (thousands separators) removed, and a comma is treated as the decimal
// separator when no dot is present, so "500,50" and "500.50" are equal.
// Negative amounts are accepted; corrections are a legitimate input.
//
// Returns ErrEmptyAmount for an empty cell and ErrInvalidAmount for text
// that does not parse as a number.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountUnits converts an amount to int64 ten-thousandths, the fixed-point
// representation used at rest. Half-up rounding on the fifth decimal digit.
func AmountUnits(d decimal.Decimal) int64 {
	return d.Round(AmountScale).Shift(AmountScale).IntPart()
}

// AmountFromUnits is the inverse of AmountUnits.
func AmountFromUnits(units int64) decimal.Decimal {
	return decimal.New(units, -AmountScale)
}

// Percent returns numerator/denominator as a percentage, or 0.0 when the
// denominator is not positive. Reports never divide by zero.
func Percent(numerator, denominator decimal.Decimal) float64 {
	if !denominator.IsPositive() {
		return 0.0
	}
	f, _ := numerator.Div(denominator).Mul(decimal.NewFromInt(100)).Float64()
	return f
}
