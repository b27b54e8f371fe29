// Package pricing converts supplier unit prices into the storefront's
// supplier, selling and compare-at tiers.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Policy is the fixed pricing policy applied to every extracted price.
type Policy struct {
	TargetCurrency     string
	Rates              map[string]decimal.Decimal
	MarginMultiplier   decimal.Decimal
	CompareMultiplier  decimal.Decimal
	DefaultSourcePrice decimal.Decimal
}

// DefaultPolicy returns the NOK storefront policy.
func DefaultPolicy() Policy {
	return Policy{
		TargetCurrency: "NOK",
		Rates: map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("10.5"),
			"EUR": decimal.RequireFromString("11.5"),
			"CNY": decimal.RequireFromString("1.45"),
			"GBP": decimal.RequireFromString("13.4"),
			"NOK": decimal.NewFromInt(1),
		},
		MarginMultiplier:   decimal.RequireFromString("2.5"),
		CompareMultiplier:  decimal.RequireFromString("1.4"),
		DefaultSourcePrice: decimal.RequireFromString("10.00"),
	}
}

// Validate checks the policy can price anything at all.
func (p Policy) Validate() error {
	if p.TargetCurrency == "" {
		return fmt.Errorf("target currency is required")
	}
	if !p.MarginMultiplier.IsPositive() {
		return fmt.Errorf("margin multiplier must be positive")
	}
	if !p.CompareMultiplier.IsPositive() {
		return fmt.Errorf("compare multiplier must be positive")
	}
	if !p.DefaultSourcePrice.IsPositive() {
		return fmt.Errorf("default source price must be positive")
	}
	for code, rate := range p.Rates {
		if !rate.IsPositive() {
			return fmt.Errorf("rate for %s must be positive", code)
		}
	}
	return nil
}

// Tiers is one price expressed in the target currency.
type Tiers struct {
	SupplierPrice  decimal.Decimal
	SellingPrice   decimal.Decimal
	CompareAtPrice decimal.Decimal
	Currency       string
}

// Normalizer applies a Policy.
type Normalizer struct {
	policy Policy
}

func NewNormalizer(policy Policy) *Normalizer {
	return &Normalizer{policy: policy}
}

// Policy returns the policy in use.
func (n *Normalizer) Policy() Policy {
	return n.policy
}

// Rate returns the conversion rate from currency to the target currency.
// Unknown currencies convert at par.
func (n *Normalizer) Rate(currency string) (decimal.Decimal, bool) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == n.policy.TargetCurrency {
		return decimal.NewFromInt(1), true
	}
	if rate, ok := n.policy.Rates[code]; ok {
		return rate, true
	}
	return decimal.NewFromInt(1), false
}

// Normalize converts amount in currency into the three tiers. Non-positive
// amounts are replaced by the policy's default source price.
func (n *Normalizer) Normalize(amount decimal.Decimal, currency string) Tiers {
	if !amount.IsPositive() {
		amount = n.policy.DefaultSourcePrice
	}
	rate, _ := n.Rate(currency)
	return Compute(amount, rate, n.policy.MarginMultiplier, n.policy.CompareMultiplier, n.policy.TargetCurrency)
}

// Compute is the pure tier calculation. The supplier price is rounded to
// cents, the selling and compare-at prices to whole units, and the selling
// price is never below one unit.
func Compute(amount, rate, margin, compare decimal.Decimal, currency string) Tiers {
	supplier := amount.Mul(rate).Round(2)

	selling := supplier.Mul(margin).Round(0)
	if !selling.IsPositive() {
		selling = decimal.NewFromInt(1)
	}

	return Tiers{
		SupplierPrice:  supplier,
		SellingPrice:   selling,
		CompareAtPrice: selling.Mul(compare).Round(0),
		Currency:       currency,
	}
}
