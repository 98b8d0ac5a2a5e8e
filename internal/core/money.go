// Package core holds the ledger's value types, the entry model and the
// validators that guard it.
//
// This file contains the exact decimal Money type used for every amount.
package core

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when formatting amounts without an explicit code.
const DefaultCurrency = "INR"

// Money is an exact amount in major units. The currency is a display concern
// and is not stored with the value.
type Money struct {
	value decimal.Decimal
}

// M builds Money from a Go number.
func M[T int | int32 | int64 | float32 | float64](v T) Money {
	switch x := any(v).(type) {
	case int:
		return Money{value: decimal.NewFromInt(int64(x))}
	case int32:
		return Money{value: decimal.NewFromInt32(x)}
	case int64:
		return Money{value: decimal.NewFromInt(x)}
	case float32:
		return Money{value: decimal.NewFromFloat32(x)}
	default:
		return Money{value: decimal.NewFromFloat(any(v).(float64))}
	}
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money { return Money{value: d} }

// ParseMoney reads a user-entered amount. Both dot (12.34) and comma (12,34)
// decimal separators are accepted. The result must be strictly positive.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: d}, nil
}

func (m Money) Decimal() decimal.Decimal   { return m.value }
func (m Money) IsZero() bool               { return m.value.IsZero() }
func (m Money) IsPositive() bool           { return m.value.IsPositive() }
func (m Money) IsNegative() bool           { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool         { return m.value.Equal(n.value) }
func (m Money) Cmp(n Money) int            { return m.value.Cmp(n.value) }
func (m Money) GreaterThan(n Money) bool   { return m.value.GreaterThan(n.value) }
func (m Money) Add(n Money) Money          { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money          { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money                 { return Money{value: m.value.Neg()} }
func (m Money) String() string             { return m.value.String() }
func (m Money) StringFixed(p int32) string { return m.value.StringFixed(p) }

// Float64 is for charting only; calculations stay in decimal.
func (m Money) Float64() float64 { return m.value.InexactFloat64() }

// Format renders the amount with the currency's symbol and separators,
// e.g. "₹1,000.00" for INR.
func (m Money) Format(currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	// money.New never returns a nil currency, unknown codes get defaults.
	cur := *money.New(0, currency).Currency()
	minor := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	m.value = d
	return nil
}
