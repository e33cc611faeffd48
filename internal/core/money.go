// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents everywhere; decimal text is only
// produced or consumed at the edges through shopspring/decimal.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. The result is always positive cents.
// Returns ErrInvalidAmount for invalid formats, negative values, zero amounts
// or values that do not fit in int64 cents.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountTextLength {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return 0, err
	}
	return m.Cents, nil
}

const (
	maxAmountTextLength = 64
	// maxIntegerDigits keeps amount*100 inside int64.
	maxIntegerDigits = 16
)

// MoneyFromDecimal rounds d to cents and rejects non-positive results.
// Magnitude is checked from the coefficient and exponent before any
// rescaling, so huge exponents fail fast.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	// magnitude is the number of digits left of the decimal point; it is
	// negative for values below 0.1 with leading zeros.
	magnitude := int64(len(d.Coefficient().String())) + int64(d.Exponent())
	if magnitude > maxIntegerDigits {
		return Money{}, ErrInvalidAmount
	}
	if magnitude < -2 {
		// below 0.001, rounds to zero cents
		return Money{}, ErrInvalidAmount
	}

	cents := d.Round(2).Shift(2)
	if !cents.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	bi := cents.BigInt()
	if !bi.IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: bi.Int64()}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two fraction digits, e.g. "12.30".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}
