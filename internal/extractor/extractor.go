// Package extractor turns supplier product URLs into normalized product
// records by running a per-supplier strategy chain.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/maltedev/supplier-extractor/internal/browser"
	"github.com/maltedev/supplier-extractor/internal/fetch"
	"github.com/maltedev/supplier-extractor/internal/models"
	"github.com/maltedev/supplier-extractor/internal/pricing"
	"github.com/maltedev/supplier-extractor/internal/supplier"
	"github.com/maltedev/supplier-extractor/internal/variants"
)

var (
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrUnsupportedSupplier = errors.New("unsupported supplier")
	ErrNoDocument          = errors.New("no document")
	ErrInvalidURL          = errors.New("invalid product URL")

	errNotFound = errors.New("not found")
)

// Extractor is implemented once per supplier.
type Extractor interface {
	Supplier() supplier.Tag
	// ScrapeProduct never panics and never returns nil. Failures of single
	// strategies degrade the record; only an unusable URL or an unexpected
	// panic yields Success=false.
	ScrapeProduct(ctx context.Context, rawURL string) *models.ExtractionResult
	ScrapePrice(ctx context.Context, rawURL string) (models.Price, error)
	ScrapeImages(ctx context.Context, rawURL string) ([]string, error)
	ScrapeDescription(ctx context.Context, rawURL string) (string, error)
}

// Deps are the collaborators an extractor runs with. Renderer is only used
// by suppliers that need a real browser.
type Deps struct {
	Fetcher  fetch.Fetcher
	Renderer browser.Renderer
	Pricing  *pricing.Normalizer
	Colors   *variants.ColorTable
	Logger   *slog.Logger
	Options  models.ExtractionOptions
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Fetcher == nil {
		d.Fetcher = fetch.NewHTTPFetcher(nil, d.Logger)
	}
	if d.Pricing == nil {
		d.Pricing = pricing.NewNormalizer(pricing.DefaultPolicy())
	}
	if d.Colors == nil {
		d.Colors = variants.DefaultColorTable()
	}
	d.Options = d.Options.WithDefaults()
	return d
}

// base runs the strategy chain for one supplier profile. Supplier types
// embed it.
type base struct {
	profile *profile
	deps    Deps
	logger  *slog.Logger
}

func newBase(p *profile, deps Deps) *base {
	deps = deps.withDefaults()
	return &base{
		profile: p,
		deps:    deps,
		logger:  deps.Logger.With("component", "extractor", "supplier", string(p.tag)),
	}
}

func (b *base) Supplier() supplier.Tag {
	return b.profile.tag
}

func (b *base) ScrapeProduct(ctx context.Context, rawURL string) (result *models.ExtractionResult) {
	start := time.Now()
	trace := models.NewTrace(string(b.profile.tag))

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("extraction panicked", "url", rawURL, "panic", r)
			result = models.Failed(fmt.Errorf("unexpected failure: %v", r), trace)
		}
		trace.Duration = time.Since(start)
	}()

	u, err := parseProductURL(rawURL)
	if err != nil {
		b.logger.Warn("rejected product URL", "url", rawURL, "error", err)
		return models.Failed(err, trace)
	}

	c := newCall(b, u, trace)
	c.run(ctx)

	product := b.assemble(c)

	b.logger.Info("extracted product",
		"url", rawURL,
		"title", product.Title,
		"price", product.Price.Amount.String(),
		"images", len(product.Images),
		"variants", len(product.Variants),
		"duration", time.Since(start),
	)

	result = &models.ExtractionResult{
		Success: true,
		Data:    product,
		Trace:   trace,
	}
	if b.deps.Options.IncludeRawHTML {
		result.RawHTML = c.rawHTML
	}
	return result
}

func (b *base) ScrapePrice(ctx context.Context, rawURL string) (models.Price, error) {
	product, err := b.product(ctx, rawURL)
	if err != nil {
		return models.Price{}, err
	}
	return product.Price, nil
}

func (b *base) ScrapeImages(ctx context.Context, rawURL string) ([]string, error) {
	product, err := b.product(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return product.Images, nil
}

func (b *base) ScrapeDescription(ctx context.Context, rawURL string) (string, error) {
	product, err := b.product(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return product.Description, nil
}

func (b *base) product(ctx context.Context, rawURL string) (*models.ExtractedProduct, error) {
	result := b.ScrapeProduct(ctx, rawURL)
	if !result.Success || result.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrExtractionFailed, result.Error)
	}
	return result.Data, nil
}

func parseProductURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}
