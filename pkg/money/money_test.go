package money_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/Nzyazin/currency/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var carryCases = []struct {
	name string
	in   money.Fraction
	want money.Fraction
}{
	{"already normalized", money.Fraction{Units: 5, Nanos: 250000000}, money.Fraction{Units: 5, Nanos: 250000000}},
	{"fractional units", money.Fraction{Units: 58.5, Nanos: 450000000}, money.Fraction{Units: 58, Nanos: 950000000}},
	{"nanos overflow", money.Fraction{Units: 0, Nanos: 1999999998}, money.Fraction{Units: 1, Nanos: 999999998}},
	{"both overflow", money.Fraction{Units: 1.75, Nanos: 500000000}, money.Fraction{Units: 2, Nanos: 250000000}},
	{"negative", money.Fraction{Units: -58.5, Nanos: -450000000}, money.Fraction{Units: -58, Nanos: -950000000}},
	{"negative overflow", money.Fraction{Units: -1, Nanos: -1500000000}, money.Fraction{Units: -2, Nanos: -500000000}},
	{"mixed signs", money.Fraction{Units: 2, Nanos: -500000000}, money.Fraction{Units: 1, Nanos: 500000000}},
	{"mixed signs negative", money.Fraction{Units: -2, Nanos: 500000000}, money.Fraction{Units: -1, Nanos: -500000000}},
	{"negative fraction only", money.Fraction{Units: -0.25, Nanos: 0}, money.Fraction{Units: 0, Nanos: -250000000}},
	{"zero", money.Fraction{}, money.Fraction{}},
}

func TestCarry(t *testing.T) {
	for _, tc := range carryCases {
		t.Run(tc.name, func(t *testing.T) {
			got := money.Carry(tc.in)
			assert.InDelta(t, tc.want.Units, got.Units, 1e-9)
			assert.InDelta(t, tc.want.Nanos, got.Nanos, 1e-3)
		})
	}
}

func TestCarryProperties(t *testing.T) {
	for _, tc := range carryCases {
		t.Run(tc.name, func(t *testing.T) {
			once := money.Carry(tc.in)
			twice := money.Carry(once)

			assert.Equal(t, once, twice, "carry must be idempotent")
			assert.Equal(t, math.Trunc(once.Units), once.Units, "units must be integral")
			assert.Less(t, math.Abs(once.Nanos), float64(money.NanosPerUnit))
			if once.Nanos != 0 && once.Units != 0 {
				assert.Equal(t, math.Signbit(once.Units), math.Signbit(once.Nanos), "sign mismatch")
			}
			assert.InDelta(t, tc.in.Value(), once.Value(), 1e-9)
		})
	}
}

func TestFractionTruncate(t *testing.T) {
	from := money.Money{CurrencyCode: "USD", Units: 65, Nanos: 500000000}

	// 65.5 * 0.9 = 58.95
	got := from.Multiply(0.9).Truncate("EUR")

	assert.Equal(t, money.Money{CurrencyCode: "EUR", Units: 58, Nanos: 950000000}, got)
}

func TestFractionTruncateDropsSubNano(t *testing.T) {
	got := money.Fraction{Units: 1, Nanos: 123456789.987}.Truncate("GBP")

	assert.Equal(t, money.Money{CurrencyCode: "GBP", Units: 1, Nanos: 123456789}, got)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   money.Money
		want money.Money
	}{
		{money.Money{Units: 1, Nanos: 0}, money.Money{Units: 1, Nanos: 0}},
		{money.Money{Units: 0, Nanos: 999999999}, money.Money{Units: 0, Nanos: 999999999}},
		{money.Money{Units: 3, Nanos: -250000000}, money.Money{Units: 2, Nanos: 750000000}},
		{money.Money{Units: -3, Nanos: 250000000}, money.Money{Units: -2, Nanos: -750000000}},
		{money.Money{Units: 1, Nanos: 2000000001}, money.Money{Units: 3, Nanos: 1}},
	}

	for _, tt := range tests {
		got := tt.in.Normalize()
		assert.Equal(t, tt.want, got)
		assert.True(t, got.IsNormalized())
		assert.Equal(t, got, got.Normalize())
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, money.Money{CurrencyCode: "USD", Units: 1, Nanos: 5}.Validate())
	assert.NoError(t, money.Money{CurrencyCode: "EUR", Units: 0, Nanos: -5}.Validate())

	assert.ErrorIs(t, money.Money{CurrencyCode: "USD", Units: 1, Nanos: -5}.Validate(), money.ErrInvalidAmount)
	assert.ErrorIs(t, money.Money{CurrencyCode: "USD", Units: 0, Nanos: 1000000000}.Validate(), money.ErrInvalidAmount)
	assert.ErrorIs(t, money.Money{CurrencyCode: "usd", Units: 1}.Validate(), money.ErrInvalidCurrencyCode)
	assert.ErrorIs(t, money.Money{CurrencyCode: "US", Units: 1}.Validate(), money.ErrInvalidCurrencyCode)
	assert.ErrorIs(t, money.Money{CurrencyCode: "QQQ", Units: 1}.Validate(), money.ErrInvalidCurrencyCode)
}

func TestDecimal(t *testing.T) {
	m := money.Money{CurrencyCode: "USD", Units: 65, Nanos: 500000000}
	assert.Equal(t, "65.5", m.Decimal().String())
	assert.Equal(t, "65.5 USD", m.String())

	neg := money.FromDecimal("USD", decimal.RequireFromString("-1.75"))
	assert.Equal(t, money.Money{CurrencyCode: "USD", Units: -1, Nanos: -750000000}, neg)

	tiny := money.FromDecimal("EUR", decimal.RequireFromString("0.0000000019"))
	assert.Equal(t, money.Money{CurrencyCode: "EUR", Units: 0, Nanos: 1}, tiny)
}

func TestWireFormatRoundTrip(t *testing.T) {
	in := money.Money{CurrencyCode: "JPY", Units: -12, Nanos: -345}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"currency_code":"JPY","units":-12,"nanos":-345}`, string(raw))

	var out money.Money
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
