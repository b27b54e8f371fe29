package extractor

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/maltedev/supplier-extractor/internal/fetch"
	"github.com/maltedev/supplier-extractor/internal/models"
	"github.com/maltedev/supplier-extractor/internal/parser"
	"github.com/maltedev/supplier-extractor/internal/ratelimit"
)

// Trace field names.
const (
	fieldTitle        = "title"
	fieldTitleHint    = "title_hint"
	fieldDescription  = "description"
	fieldPrice        = "price"
	fieldImages       = "images"
	fieldVariants     = "variants"
	fieldSpecs        = "specs"
	fieldShipping     = "shipping_estimate"
	fieldAvailability = "availability"
)

// Partial is what one strategy found. Zero values mean "not found".
type Partial struct {
	Title     string
	TitleHint string // slug-derived, used only when no strategy finds a title

	Description   string
	Price         decimal.Decimal
	Currency      string
	Images        []string
	VariantImages []string
	Variants      []models.VariantCandidate
	Specs         map[string]string
	Shipping      string
	Availability  *bool
}

// fill copies fields from other that p lacks. It is used inside a single
// strategy combining two sources.
func (p *Partial) fill(other Partial) {
	st := State{Partial: *p}
	st.merge(other)
	*p = st.Partial
}

// State is the record accumulated across strategies.
type State struct {
	Partial
}

// merge applies merge-on-gap and returns the fields p contributed.
func (s *State) merge(p Partial) []string {
	var fields []string

	if s.Title == "" && p.Title != "" {
		s.Title = p.Title
		fields = append(fields, fieldTitle)
	}
	if s.TitleHint == "" && p.TitleHint != "" {
		s.TitleHint = p.TitleHint
		fields = append(fields, fieldTitleHint)
	}
	if s.Description == "" && p.Description != "" {
		s.Description = p.Description
		fields = append(fields, fieldDescription)
	}
	if !s.Price.IsPositive() && p.Price.IsPositive() {
		s.Price = p.Price
		s.Currency = p.Currency
		fields = append(fields, fieldPrice)
	}
	if len(p.Images) > 0 || len(p.VariantImages) > 0 {
		s.Images = append(s.Images, p.Images...)
		s.VariantImages = append(s.VariantImages, p.VariantImages...)
		fields = append(fields, fieldImages)
	}
	if len(s.Variants) == 0 && len(p.Variants) > 0 {
		s.Variants = p.Variants
		fields = append(fields, fieldVariants)
	}
	if len(p.Specs) > 0 {
		added := false
		if s.Specs == nil {
			s.Specs = make(map[string]string, len(p.Specs))
		}
		for k, v := range p.Specs {
			if _, exists := s.Specs[k]; !exists {
				s.Specs[k] = v
				added = true
			}
		}
		if added {
			fields = append(fields, fieldSpecs)
		}
	}
	if s.Shipping == "" && p.Shipping != "" {
		s.Shipping = p.Shipping
		fields = append(fields, fieldShipping)
	}
	if s.Availability == nil && p.Availability != nil {
		s.Availability = p.Availability
		fields = append(fields, fieldAvailability)
	}

	return fields
}

// complete reports whether the fields the browser is launched for are all
// present.
func (s *State) complete() bool {
	return s.Title != "" && s.Price.IsPositive() && len(s.Images) > 0
}

type strategy struct {
	name string
	run  func(ctx context.Context, c *call) (Partial, error)
	// skip, when set, is consulted right before the strategy would run.
	skip func(c *call) bool
}

// call is the per-invocation scratch space. Nothing in it outlives
// ScrapeProduct.
type call struct {
	*base
	url     *url.URL
	rawURL  string
	trace   *models.Trace
	state   State
	rawHTML string

	fetched  bool
	doc      *goquery.Document
	docErr   error
	payloads *parser.Payloads
}

func newCall(b *base, u *url.URL, trace *models.Trace) *call {
	return &call{
		base:   b,
		url:    u,
		rawURL: u.String(),
		trace:  trace,
	}
}

func (c *call) run(ctx context.Context) {
	for _, s := range c.strategies() {
		if s.skip != nil && s.skip(c) {
			c.trace.Record(models.StrategyTrace{Name: s.name, Skipped: true})
			continue
		}

		start := time.Now()
		partial, err := c.safeRun(ctx, s)
		entry := models.StrategyTrace{
			Name:     s.name,
			Duration: time.Since(start),
			Fields:   c.state.merge(partial),
		}
		if err != nil {
			entry.Error = err.Error()
			c.logger.Debug("strategy failed", "strategy", s.name, "url", c.rawURL, "error", err)
		}
		c.trace.Record(entry)
	}
}

// safeRun turns a panicking strategy into a failed one so the chain can
// continue.
func (c *call) safeRun(ctx context.Context, s strategy) (p Partial, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = Partial{}, fmt.Errorf("strategy %s panicked: %v", s.name, r)
		}
	}()
	return s.run(ctx, c)
}

// document fetches the static page once per call; later callers share the
// result or the error.
func (c *call) document(ctx context.Context) (*goquery.Document, error) {
	if c.fetched {
		return c.doc, c.docErr
	}
	c.fetched = true

	opts := c.deps.Options
	if err := ratelimit.Sleep(ctx, opts.MinDelay, opts.MaxDelay); err != nil {
		c.docErr = fmt.Errorf("%w: %v", ErrNoDocument, err)
		return nil, c.docErr
	}

	page, err := c.deps.Fetcher.Fetch(ctx, c.rawURL, fetch.Request{
		Locale:            opts.Locale,
		UserAgents:        opts.UserAgents,
		UserAgentRotation: opts.UserAgentRotation,
		Timeout:           opts.FetchTimeout,
	})
	if err != nil {
		c.docErr = fmt.Errorf("%w: %v", ErrNoDocument, err)
		return nil, c.docErr
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		c.docErr = fmt.Errorf("%w: parse: %v", ErrNoDocument, err)
		return nil, c.docErr
	}

	c.rawHTML = page.HTML
	c.doc = doc
	return doc, nil
}

func (c *call) scripts(ctx context.Context) (parser.Payloads, error) {
	if c.payloads != nil {
		return *c.payloads, nil
	}
	doc, err := c.document(ctx)
	if err != nil {
		return parser.Payloads{}, err
	}
	payloads := parser.ScriptPayloads(doc, c.profile.hydrationVars)
	c.payloads = &payloads
	return payloads, nil
}
