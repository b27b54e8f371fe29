package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is an amount in a currency.
type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Variant is a purchasable sub-option of a product.
type Variant struct {
	Name           string            `json:"name"`
	Price          decimal.Decimal   `json:"price"`
	CompareAtPrice *decimal.Decimal  `json:"compare_at_price,omitempty"`
	SupplierPrice  *decimal.Decimal  `json:"supplier_price,omitempty"`
	Image          string            `json:"image,omitempty"`
	Attributes     map[string]string `json:"attributes"`
	SKU            string            `json:"sku,omitempty"`
	Stock          *int              `json:"stock,omitempty"`
}

// VariantCandidate is a variant as found on the supplier page, priced in the
// source currency and not yet normalized.
type VariantCandidate struct {
	Name       string            `json:"name"`
	Price      decimal.Decimal   `json:"price"`
	Image      string            `json:"image,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	SKU        string            `json:"sku,omitempty"`
	Stock      *int              `json:"stock,omitempty"`
}

// ExtractedProduct is the normalized record handed to the catalog writer.
type ExtractedProduct struct {
	SourceURL        string            `json:"source_url"`
	Supplier         string            `json:"supplier"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Price            Price             `json:"price"`
	SupplierPrice    Price             `json:"supplier_price"`
	CompareAtPrice   Price             `json:"compare_at_price"`
	Images           []string          `json:"images"`
	Specs            map[string]string `json:"specs"`
	ShippingEstimate string            `json:"shipping_estimate,omitempty"`
	Availability     bool              `json:"availability"`
	Variants         []Variant         `json:"variants"`
	ExtractedAt      time.Time         `json:"extracted_at"`
}

// ExtractionResult wraps the outcome of one extraction call. Data is set when
// Success is true, Error otherwise.
type ExtractionResult struct {
	Success bool              `json:"success"`
	Data    *ExtractedProduct `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	RawHTML string            `json:"raw_html,omitempty"`
	Trace   *Trace            `json:"trace,omitempty"`
}

// Trace records which strategy contributed which field and how long each
// strategy took.
type Trace struct {
	Supplier     string            `json:"supplier"`
	Strategies   []StrategyTrace   `json:"strategies"`
	FieldSources map[string]string `json:"field_sources"`
	Duration     time.Duration     `json:"duration"`
}

type StrategyTrace struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Fields   []string      `json:"fields,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// NewTrace returns an empty trace for supplier.
func NewTrace(supplier string) *Trace {
	return &Trace{
		Supplier:     supplier,
		Strategies:   make([]StrategyTrace, 0, 5),
		FieldSources: make(map[string]string),
	}
}

// Record appends a strategy entry and claims every field it filled.
func (t *Trace) Record(st StrategyTrace) {
	t.Strategies = append(t.Strategies, st)
	for _, f := range st.Fields {
		if _, exists := t.FieldSources[f]; !exists {
			t.FieldSources[f] = st.Name
		}
	}
}

// Failed builds a failure result.
func Failed(err error, trace *Trace) *ExtractionResult {
	return &ExtractionResult{
		Success: false,
		Error:   err.Error(),
		Trace:   trace,
	}
}

// Validate returns the violated output invariants, if any.
func (p *ExtractedProduct) Validate() []string {
	var errors []string

	if p.Title == "" {
		errors = append(errors, "title is required")
	}

	if !p.Price.Amount.IsPositive() {
		errors = append(errors, "price must be positive")
	}

	if len(p.Variants) == 0 {
		errors = append(errors, "at least one variant is required")
	}

	return errors
}
