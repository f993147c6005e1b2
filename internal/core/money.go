// Package core provides money parsing and handling utilities.
//
// This file contains the Money type used for every stored amount and the
// parsing rules applied to user input.
package core

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount with two fractional digits.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney rounds d to two decimals.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(2)}
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// MustMoney parses s and panics on error. Intended for tests and constants.
func MustMoney(s string) Money {
	m, err := ParseSignedMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseAmount parses a positive amount entered by a user.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up on the third decimal place. Signs, exponents and zero are
// rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Zero, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return Zero, ErrInvalidAmount
			}
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	m := NewMoney(d)
	if !m.IsPositive() {
		return Zero, ErrInvalidAmount
	}
	return m, nil
}

// isZeroAmount reports whether s spells zero with at least one digit and at
// most one decimal separator.
func isZeroAmount(s string) bool {
	return strings.Contains(s, "0") &&
		strings.Trim(s, "0.,") == "" &&
		strings.Count(s, ".")+strings.Count(s, ",") <= 1
}

// ParseSignedMoney parses an amount that may be negative, as used for
// budget estimates and opening balances.
func ParseSignedMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if isZeroAmount(s) {
		return Zero, nil
	}
	m, err := ParseAmount(s)
	if err != nil {
		return Zero, err
	}
	if neg {
		return m.Neg(), nil
	}
	return m, nil
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

func (m Money) Abs() Money { return Money{d: m.d.Abs()} }

// Mul multiplies by a rate, rounding the result to cents.
func (m Money) Mul(rate decimal.Decimal) Money { return NewMoney(m.d.Mul(rate)) }

// Div divides by n, rounding the result to cents.
func (m Money) Div(n int64) Money { return NewMoney(m.d.Div(decimal.NewFromInt(n))) }

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) Cmp(o Money) int  { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// Cents returns the amount in cents.
func (m Money) Cents() int64 {
	return m.d.Shift(2).Round(0).IntPart()
}

// Float64 returns the amount for display and spreadsheet export only.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

func (m Money) String() string { return m.d.StringFixed(2) }

// MarshalJSON encodes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(b))
	}
	*m = NewMoney(d)
	return nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	if src == nil {
		*m = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = NewMoney(d)
	return nil
}

// Value implements driver.Valuer. Amounts are stored as fixed two-decimal text.
func (m Money) Value() (driver.Value, error) {
	return m.d.StringFixed(2), nil
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
