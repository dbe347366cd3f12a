// Package core provides money parsing and handling utilities.
//
// Amounts are kept as float64 in records and in the store. Parsing and
// display go through decimal so that "0.1" is read and shown exactly.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of fractional digits an amount may carry.
const AmountPlaces = 2

// MaxAmount is the largest amount accepted from user input.
var MaxAmount = decimal.RequireFromString("999999999.99")

// NormalizeAmountText strips the currency sign and spaces and converts a
// decimal comma to a dot.
//
// Examples:
//
//	NormalizeAmountText(" 12,34 € ") -> "12.34"
//	NormalizeAmountText("1 000,5")   -> "1000.5"
func NormalizeAmountText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '€', ' ', '\t', '\u00a0':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// ParseAmount converts user text into a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and at
// most two fractional digits, so every stored amount displays exactly.
// Returns a *ValidationError wrapping ErrInvalidAmount for empty, malformed,
// negative, too precise or too large input.
func ParseAmount(s string) (float64, error) {
	normalized := NormalizeAmountText(s)
	if normalized == "" {
		return 0, &ValidationError{Field: "amount", Input: s, Err: ErrInvalidAmount}
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Input: s, Err: ErrInvalidAmount}
	}
	if d.IsNegative() || d.GreaterThan(MaxAmount) || d.Exponent() < -AmountPlaces {
		return 0, &ValidationError{Field: "amount", Input: s, Err: ErrInvalidAmount}
	}
	f, _ := d.Float64()
	return f, nil
}

// FormatAmount renders an amount with exactly two decimals, e.g. "150.50".
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(AmountPlaces)
}

// Total sums record amounts in decimal arithmetic.
func Total(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Amount))
	}
	return total
}
