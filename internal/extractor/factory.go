package extractor

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/maltedev/supplier-extractor/internal/browser"
	"github.com/maltedev/supplier-extractor/internal/supplier"
)

// RendererProvider builds a renderer on demand. The factory only calls it
// for suppliers that need a browser.
type RendererProvider func() (browser.Renderer, error)

// PlaywrightRenderer provides scoped playwright renderers. Nothing is
// started until the first Render.
func PlaywrightRenderer(headless bool, logger *slog.Logger) RendererProvider {
	return func() (browser.Renderer, error) {
		return browser.NewScopedRenderer(browser.NewPlaywrightLauncher(logger), headless, logger), nil
	}
}

type registration struct {
	build         func(Deps) Extractor
	needsRenderer bool
}

var registry = map[supplier.Tag]registration{
	supplier.Alibaba: {
		build: func(d Deps) Extractor { return NewAlibabaExtractor(d) },
	},
	supplier.AliExpress: {
		build: func(d Deps) Extractor { return NewAliExpressExtractor(d) },
	},
	supplier.Temu: {
		build:         func(d Deps) Extractor { return NewTemuExtractor(d) },
		needsRenderer: true,
	},
}

// Factory maps URLs to extractors.
type Factory struct {
	deps     Deps
	renderer RendererProvider
	logger   *slog.Logger
}

// NewFactory validates the extraction options and returns a factory. A nil
// renderer provider leaves browser-backed suppliers without their rendered
// strategy.
func NewFactory(deps Deps, renderer RendererProvider) (*Factory, error) {
	deps = deps.withDefaults()
	if err := validator.New().Struct(deps.Options); err != nil {
		return nil, fmt.Errorf("invalid extraction options: %w", err)
	}
	return &Factory{
		deps:     deps,
		renderer: renderer,
		logger:   deps.Logger.With("component", "extractor_factory"),
	}, nil
}

// ForURL returns the extractor for rawURL's supplier. The boolean is false
// for unsupported suppliers.
func (f *Factory) ForURL(rawURL string) (Extractor, bool) {
	tag, ok := supplier.Identify(rawURL)
	if !ok {
		return nil, false
	}
	e, err := f.For(tag)
	if err != nil {
		f.logger.Error("failed to build extractor", "supplier", tag, "error", err)
		return nil, false
	}
	return e, true
}

// For builds the extractor for tag.
func (f *Factory) For(tag supplier.Tag) (Extractor, error) {
	reg, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSupplier, tag)
	}

	deps := f.deps
	if reg.needsRenderer && deps.Renderer == nil && f.renderer != nil {
		r, err := f.renderer()
		if err != nil {
			// The static strategies still work without a browser.
			f.logger.Warn("renderer unavailable", "supplier", tag, "error", err)
		} else {
			deps.Renderer = r
		}
	}
	return reg.build(deps), nil
}

// GetExtractorForURL returns an extractor with default dependencies and a
// headless playwright renderer for suppliers that need one.
func GetExtractorForURL(rawURL string) (Extractor, bool) {
	f, err := NewFactory(Deps{}, PlaywrightRenderer(true, slog.Default()))
	if err != nil {
		return nil, false
	}
	return f.ForURL(rawURL)
}
