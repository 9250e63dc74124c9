// Package money provides currency-safe arithmetic for report amounts using
// integer centavos and the Fowler Money pattern. Report values are always BRL;
// the source PDFs use Brazilian number formatting (1.234,56), so parsing
// accepts that format with an English-format fallback.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BRL is the only currency the Curva ABC reports carry.
const BRL = "BRL"

// Money represents a BRL monetary value. It wraps go-money for safe arithmetic
// and shopspring/decimal for precise conversions.
type Money struct {
	m *money.Money
}

// New creates a Money value from centavos (minor units).
func New(centavos int64) *Money {
	return &Money{m: money.New(centavos, BRL)}
}

// NewFromDecimal creates Money from a decimal value, rounding to centavos.
func NewFromDecimal(amount decimal.Decimal) *Money {
	cents := amount.Mul(decimal.New(1, 2)).Round(0).IntPart()
	return New(cents)
}

// NewFromString parses a formatted amount string. Brazilian format (1.234,56)
// is tried first; plain English format (1,234.56 or 1234.56) is the fallback.
func NewFromString(amount string) (*Money, error) {
	d, err := ParseDecimal(amount)
	if err != nil {
		return nil, err
	}
	return NewFromDecimal(d), nil
}

// ParseDecimal parses a numeric string in Brazilian or English format into a
// decimal. Currency symbols and surrounding whitespace are stripped.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	if strings.Contains(s, ",") {
		// Brazilian: dot is the thousands separator, comma the decimal mark.
		br := strings.ReplaceAll(s, ".", "")
		br = strings.ReplaceAll(br, ",", ".")
		if d, err := decimal.NewFromString(br); err == nil {
			return d, nil
		}
		// Fallback: treat commas as thousands separators (1,234.56).
		en := strings.ReplaceAll(s, ",", "")
		if d, err := decimal.NewFromString(en); err == nil {
			return d, nil
		}
		return decimal.Zero, fmt.Errorf("invalid amount: %q", s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %q", s)
	}
	return d, nil
}

// Zero returns a zero BRL value.
func Zero() *Money {
	return New(0)
}

// Amount returns the value in centavos.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// IsZero returns true if the amount is zero.
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// IsNegative returns true if the amount is less than zero.
func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// IsPositive returns true if the amount is greater than zero.
func (m *Money) IsPositive() bool {
	return m != nil && m.m != nil && m.m.IsPositive()
}

// Add adds two values. Both sides are BRL so this cannot fail on currency.
func (m *Money) Add(other *Money) *Money {
	if m == nil || m.m == nil {
		return other
	}
	if other == nil || other.m == nil {
		return m
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return m
	}
	return &Money{m: sum}
}

// ToDecimal converts to a decimal with centavo precision.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(m.m.Amount()).Div(decimal.New(1, 2))
}

// ToFloat64 converts to float64 for spreadsheet cells. Centavo amounts have at
// most two decimal places, so the spreadsheet round-trips exactly.
func (m *Money) ToFloat64() float64 {
	return m.ToDecimal().InexactFloat64()
}

// Compare returns -1 if m < other, 0 if equal, 1 if m > other.
func (m *Money) Compare(other *Money) int {
	return int(decimal.NewFromInt(m.Amount()).Cmp(decimal.NewFromInt(other.Amount())))
}

// String returns the amount as a plain decimal string (e.g. "1234.56").
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().StringFixed(2)
}

// Display returns a formatted BRL string (e.g. "R$1.234,56").
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return money.New(0, BRL).Display()
	}
	return m.m.Display()
}

// MarshalJSON encodes the value as centavos plus a display string.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"amount":  m.Amount(),
		"decimal": m.String(),
	})
}

// UnmarshalJSON decodes a value encoded by MarshalJSON.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount int64 `json:"amount"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.m = money.New(v.Amount, BRL)
	return nil
}
