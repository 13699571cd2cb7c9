package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// NanosPerUnit is the number of nanos in one whole currency unit.
const NanosPerUnit = 1_000_000_000

var (
	ErrInvalidAmount       = errors.New("amount is not normalized")
	ErrInvalidCurrencyCode = errors.New("invalid currency code")
)

// Money is the wire representation of an amount: whole units plus
// billionths of a unit. For example -1.75 USD is Units=-1, Nanos=-750000000.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Units        int64  `json:"units"`
	Nanos        int32  `json:"nanos"`
}

// Fraction is an intermediate amount produced by arithmetic. Either part may
// carry a fractional remainder until Carry normalizes it.
type Fraction struct {
	Units float64
	Nanos float64
}

// New returns a normalized Money.
func New(code string, units int64, nanos int64) Money {
	return Money{CurrencyCode: code, Units: units}.normalize(nanos)
}

// ValidateCode checks that code looks like an ISO 4217 code.
func ValidateCode(code string) error {
	if len(code) != 3 || strings.ToUpper(code) != code {
		return fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, code)
	}
	if _, err := currency.ParseISO(code); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, code)
	}
	return nil
}

// Validate reports whether m is a normalized amount with a well-formed code.
func (m Money) Validate() error {
	if err := ValidateCode(m.CurrencyCode); err != nil {
		return err
	}
	if !m.IsNormalized() {
		return fmt.Errorf("%w: units=%d nanos=%d", ErrInvalidAmount, m.Units, m.Nanos)
	}
	return nil
}

// IsNormalized reports whether |nanos| < 10^9 and nanos agrees in sign with units.
func (m Money) IsNormalized() bool {
	if m.Nanos <= -NanosPerUnit || m.Nanos >= NanosPerUnit {
		return false
	}
	return !(m.Units > 0 && m.Nanos < 0) && !(m.Units < 0 && m.Nanos > 0)
}

// Normalize carries whole units out of nanos using integer arithmetic.
func (m Money) Normalize() Money {
	return Money{CurrencyCode: m.CurrencyCode, Units: m.Units}.normalize(int64(m.Nanos))
}

func (m Money) normalize(nanos int64) Money {
	units := m.Units + nanos/NanosPerUnit
	nanos %= NanosPerUnit
	switch {
	case units > 0 && nanos < 0:
		units--
		nanos += NanosPerUnit
	case units < 0 && nanos > 0:
		units++
		nanos -= NanosPerUnit
	}
	m.Units = units
	m.Nanos = int32(nanos)
	return m
}

// Fraction returns m as an intermediate value for further arithmetic.
func (m Money) Fraction() Fraction {
	return Fraction{Units: float64(m.Units), Nanos: float64(m.Nanos)}
}

// Multiply scales both parts of m by factor. The result is uncarried.
func (m Money) Multiply(factor float64) Fraction {
	return Fraction{
		Units: float64(m.Units) * factor,
		Nanos: float64(m.Nanos) * factor,
	}
}

// Carry folds the fractional part of Units into Nanos and moves whole units
// out of Nanos, so that |Nanos| < 10^9 and Nanos has the sign of Units.
// For non-negative values this is floor/floor-mod. Negative values are
// split toward zero so the sign invariant holds.
func Carry(f Fraction) Fraction {
	const fractionSize = NanosPerUnit

	whole, frac := math.Modf(f.Units)
	nanos := f.Nanos + frac*fractionSize

	overflow := math.Trunc(nanos / fractionSize)
	units := whole + overflow
	nanos -= overflow * fractionSize

	switch {
	case units > 0 && nanos < 0:
		units--
		nanos += fractionSize
	case units < 0 && nanos > 0:
		units++
		nanos -= fractionSize
	}
	return Fraction{Units: units, Nanos: nanos}
}

// Truncate carries f and drops anything below one nano, tagging the result
// with code. Sub-nano precision is discarded, not rounded.
func (f Fraction) Truncate(code string) Money {
	c := Carry(f)
	return Money{
		CurrencyCode: code,
		Units:        int64(math.Trunc(c.Units)),
		Nanos:        int32(math.Trunc(c.Nanos)),
	}.Normalize()
}

// Value returns units + nanos/10^9.
func (f Fraction) Value() float64 {
	return f.Units + f.Nanos/NanosPerUnit
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Units).Add(decimal.New(int64(m.Nanos), -9))
}

// FromDecimal converts d to Money, truncating beyond nano precision.
func FromDecimal(code string, d decimal.Decimal) Money {
	d = d.Truncate(9)
	units := d.IntPart()
	nanos := d.Sub(decimal.NewFromInt(units)).Shift(9).IntPart()
	return New(code, units, nanos)
}

func (m Money) String() string {
	return m.Decimal().String() + " " + m.CurrencyCode
}
