package models

import (
	"time"
)

// ExtractionOptions configures one extraction call. It is passed by value and
// never mutated during the call.
type ExtractionOptions struct {
	Locale            string        `json:"locale" validate:"required"`
	Currency          string        `json:"currency" validate:"required,len=3"`
	MinDelay          time.Duration `json:"min_delay" validate:"gte=0"`
	MaxDelay          time.Duration `json:"max_delay" validate:"gtefield=MinDelay"`
	UserAgentRotation bool          `json:"user_agent_rotation"`
	UserAgents        []string      `json:"-"`

	// SingleVariantColorOverride collapses detected colour variants into one
	// variant of this colour. Empty disables it.
	SingleVariantColorOverride string `json:"single_variant_color_override,omitempty"`

	FetchTimeout    time.Duration `json:"fetch_timeout" validate:"gt=0"`
	NavigateTimeout time.Duration `json:"navigate_timeout" validate:"gt=0"`
	SettleDelay     time.Duration `json:"settle_delay" validate:"gte=0"`
	IncludeRawHTML  bool          `json:"include_raw_html"`
}

// DefaultExtractionOptions returns the defaults every caller starts from.
func DefaultExtractionOptions() ExtractionOptions {
	return ExtractionOptions{
		Locale:            "en-US",
		Currency:          "USD",
		MinDelay:          1000 * time.Millisecond,
		MaxDelay:          2500 * time.Millisecond,
		UserAgentRotation: true,
		FetchTimeout:      20 * time.Second,
		NavigateTimeout:   45 * time.Second,
		SettleDelay:       3 * time.Second,
	}
}

// WithDefaults fills zero fields from DefaultExtractionOptions.
func (o ExtractionOptions) WithDefaults() ExtractionOptions {
	d := DefaultExtractionOptions()
	if o.Locale == "" {
		o.Locale = d.Locale
	}
	if o.Currency == "" {
		o.Currency = d.Currency
	}
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = d.FetchTimeout
	}
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = d.NavigateTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	return o
}
