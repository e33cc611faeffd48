package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"1500", 150000, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999999", 0, false},
		{"9999999999999999.99", 999999999999999999, true},
		{"10000000000000000", 0, false},
		{"1e3", 100000, true},
		{"1.5e-2", 2, true},
		{"0.00049e1", 0, false},
		{strings.Repeat("1", 65), 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("%q expected validation error, got %v", tc.in, err)
			}
		}
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	m, err := MoneyFromDecimal(decimal.RequireFromString("42.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Cents != 4250 {
		t.Fatalf("expected 4250, got %d", m.Cents)
	}
	if _, err := MoneyFromDecimal(decimal.RequireFromString("-3")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m       Money
		str     string
		decimal string
	}{
		{Money{Cents: 1230}, "12.30", "12.3"},
		{Money{Cents: 5}, "0.05", "0.05"},
		{Money{Cents: 10000}, "100.00", "100"},
		{Money{Cents: -4000}, "-40.00", "-40"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.str {
			t.Fatalf("String(%d) = %q, want %q", tc.m.Cents, got, tc.str)
		}
		if got := tc.m.Decimal().String(); got != tc.decimal {
			t.Fatalf("Decimal(%d) = %q, want %q", tc.m.Cents, got, tc.decimal)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := Money{Cents: 10000}, Money{Cents: 6000}
	if got := a.Sub(b); got.Cents != 4000 {
		t.Fatalf("Sub: got %d", got.Cents)
	}
	if got := b.Sub(a); got.Cents != -4000 {
		t.Fatalf("Sub negative: got %d", got.Cents)
	}
	if got := a.Add(b); got.Cents != 16000 {
		t.Fatalf("Add: got %d", got.Cents)
	}
}

func TestMoneyFromDecimal_ExtremeExponents(t *testing.T) {
	inputs := []string{"1e50000000", "1e-50000000", "123456789e2147483000", "5e-2147483000"}
	for _, in := range inputs {
		start := time.Now()
		if _, err := ParseDecimalToCents(in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", in, err)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Fatalf("%q took %v, magnitude must be checked before rounding", in, elapsed)
		}
	}
}
