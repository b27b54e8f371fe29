package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(DefaultPolicy())

	tests := []struct {
		name     string
		amount   decimal.Decimal
		currency string
		supplier string
		selling  string
		compare  string
	}{
		{name: "USD", amount: d("3.50"), currency: "USD", supplier: "36.75", selling: "92", compare: "129"},
		{name: "Lower case code", amount: d("3.50"), currency: "usd", supplier: "36.75", selling: "92", compare: "129"},
		{name: "EUR", amount: d("2"), currency: "EUR", supplier: "23", selling: "58", compare: "81"},
		{name: "CNY", amount: d("20"), currency: "CNY", supplier: "29", selling: "73", compare: "102"},
		{name: "Target currency", amount: d("100"), currency: "NOK", supplier: "100", selling: "250", compare: "350"},
		{name: "Default price", amount: decimal.Zero, currency: "USD", supplier: "105", selling: "263", compare: "368"},
		{name: "Unknown currency at par", amount: d("4"), currency: "XYZ", supplier: "4", selling: "10", compare: "14"},
		{name: "Tiny price floors at one", amount: d("0.01"), currency: "CNY", supplier: "0.01", selling: "1", compare: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.amount, tt.currency)
			assert.True(t, d(tt.supplier).Equal(got.SupplierPrice), "supplier: got %s", got.SupplierPrice)
			assert.True(t, d(tt.selling).Equal(got.SellingPrice), "selling: got %s", got.SellingPrice)
			assert.True(t, d(tt.compare).Equal(got.CompareAtPrice), "compare: got %s", got.CompareAtPrice)
			assert.Equal(t, "NOK", got.Currency)
		})
	}
}

func TestRate(t *testing.T) {
	n := NewNormalizer(DefaultPolicy())

	rate, ok := n.Rate("GBP")
	require.True(t, ok)
	assert.True(t, d("13.4").Equal(rate))

	rate, ok = n.Rate("SEK")
	assert.False(t, ok)
	assert.True(t, decimal.NewFromInt(1).Equal(rate))
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.MarginMultiplier = decimal.Zero
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.Rates["USD"] = d("-1")
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.TargetCurrency = ""
	assert.Error(t, p.Validate())
}
