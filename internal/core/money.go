// Package core holds the domain model: money, dates, transactions, plans
// and the closed category and user sets.
package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a currency-agnostic amount held as integer cents. All
// arithmetic happens on cents; Units is for display and serialization.
type Money struct {
	Cents int64
}

// Cents constructs a Money from a raw cent count.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// Units constructs a Money from whole currency units.
func Units(u int64) Money {
	return Money{Cents: u * 100}
}

// Float returns the amount in currency units as a float64, for display
// and percentage math only.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other, which may be negative.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String renders the amount in units with two decimals only when the
// amount has a fractional part.
func (m Money) String() string {
	if m.Cents%100 == 0 {
		return strconv.FormatInt(m.Cents/100, 10)
	}
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON emits the amount as a plain JSON number in currency units,
// matching the wire form of the sync envelope.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number (or numeric string) in currency
// units and converts it to cents with half-up rounding.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		var s string
		if err2 := json.Unmarshal(data, &s); err2 != nil {
			return err
		}
		raw = json.Number(s)
	}
	f, err := raw.Float64()
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, raw.String())
	}
	if f >= 0 {
		m.Cents = int64(f*100 + 0.5)
	} else {
		m.Cents = -int64(-f*100 + 0.5)
	}
	return nil
}

// ParseAmount converts a user-entered decimal string to Money. Both dot
// and comma decimal separators are accepted; the third decimal digit
// rounds half-up. Negative, zero and malformed input is rejected, the
// sign always comes from the entry type.
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return Money{}, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxUnits = (1<<63 - 1) / 100
	if units > maxUnits {
		return Money{}, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	cents := units*100 + frac
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}
