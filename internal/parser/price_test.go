package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		ok       bool
	}{
		{name: "US dollar", text: "US $3.99", expected: "3.99", ok: true},
		{name: "Range takes minimum", text: "$10.50 - $15.00", expected: "10.5", ok: true},
		{name: "En dash range", text: "€12–€20", expected: "12", ok: true},
		{name: "Tilde range", text: "US $4.10~6.80", expected: "4.1", ok: true},
		{name: "Word range", text: "5 to 8 USD", expected: "5", ok: true},
		{name: "European format", text: "1.299,00 kr", expected: "1299", ok: true},
		{name: "US thousands", text: "1,299.00", expected: "1299", ok: true},
		{name: "Decimal comma", text: "12,50", expected: "12.5", ok: true},
		{name: "Comma thousands", text: "1,299", expected: "1299", ok: true},
		{name: "Dot thousands", text: "1.234.567", expected: "1234567", ok: true},
		{name: "Space thousands with dash", text: "kr 1 299,-", expected: "1299", ok: true},
		{name: "Discount percentage ignored", text: "NOK 199 -50%", expected: "199", ok: true},
		{name: "Norwegian dot thousands with dash", text: "kr 1.299,-", expected: "1299", ok: true},
		{name: "Norwegian dot thousands", text: "NOK 1.299", expected: "1299", ok: true},
		{name: "Euro dot thousands", text: "€ 2.499", expected: "2499", ok: true},
		{name: "Dollar three decimals kept", text: "$1.299", expected: "1.299", ok: true},
		{name: "Number next to symbol wins", text: "3 pcs: $4.50", expected: "4.5", ok: true},
		{name: "Symbol after amount", text: "2 pack 149,00 kr", expected: "149", ok: true},
		{name: "No number", text: "Free shipping", ok: false},
		{name: "Zero", text: "$0.00", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePriceText(tt.text)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				expected := decimal.RequireFromString(tt.expected)
				assert.True(t, expected.Equal(got), "expected %s, got %s", expected, got)
			}
		})
	}
}

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"US $3.99", "USD"},
		{"$5", "USD"},
		{"€12,00", "EUR"},
		{"12.00 EUR", "EUR"},
		{"£9.99", "GBP"},
		{"¥45", "CNY"},
		{"CN¥45", "CNY"},
		{"199 kr", "NOK"},
		{"NOK 199", "NOK"},
		{"12.00", "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectCurrency(tt.text, "USD"))
		})
	}
}

func TestParseAmount(t *testing.T) {
	got, ok := ParseAmount(3.5)
	require.True(t, ok)
	assert.Equal(t, "3.5", got.String())

	got, ok = ParseAmount(map[string]interface{}{"value": "7.25", "currency": "USD"})
	require.True(t, ok)
	assert.Equal(t, "7.25", got.String())

	_, ok = ParseAmount(-1.0)
	assert.False(t, ok)

	_, ok = ParseAmount(nil)
	assert.False(t, ok)
}
