package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNegativeResult occurs when a subtraction would produce a negative amount.
var ErrNegativeResult = errors.New("money: negative result")

// scale is the number of decimal places carried by every amount.
const scale = 2

var unitsPerMajor = decimal.New(1, scale)

// Money is a fixed-point currency amount stored as minor units (hundredths).
// The zero value is a valid zero amount. Arithmetic never touches floats.
type Money struct {
	units int64
}

// Zero is the zero amount.
var Zero = Money{}

// FromUnits builds an amount from minor units (e.g. 1050 -> 10.50).
func FromUnits(units int64) Money {
	return Money{units: units}
}

// FromMajor builds an amount from whole currency units (e.g. 10 -> 10.00).
func FromMajor(major int64) Money {
	return Money{units: major * 100}
}

// FromDecimal converts an arbitrary-precision decimal into an amount,
// rounding half away from zero to two decimal places.
func FromDecimal(d decimal.Decimal) Money {
	return Money{units: d.Round(scale).Mul(unitsPerMajor).IntPart()}
}

// Parse reads an amount from its decimal string form, e.g. "1000.00".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// Units returns the amount in minor units.
func (m Money) Units() int64 { return m.units }

// Decimal returns the amount as a two-place decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.units, -scale)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{units: m.units + o.units}
}

// Sub returns m - o, failing with ErrNegativeResult when the outcome would
// be negative. Balances are never allowed below zero, so there is no
// unchecked variant.
func (m Money) Sub(o Money) (Money, error) {
	if o.units > m.units {
		return Money{}, ErrNegativeResult
	}
	return Money{units: m.units - o.units}, nil
}

// Cmp compares two amounts, returning -1, 0 or 1.
func (m Money) Cmp(o Money) int {
	switch {
	case m.units < o.units:
		return -1
	case m.units > o.units:
		return 1
	default:
		return 0
	}
}

// Equal reports whether two amounts are identical.
func (m Money) Equal(o Money) bool { return m.units == o.units }

// Less reports whether m is strictly smaller than o.
func (m Money) Less(o Money) bool { return m.units < o.units }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.units > 0 }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.units == 0 }

// String renders the amount with two decimal places, e.g. "990.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(scale)
}

// MarshalJSON encodes the amount as a plain JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
