// Package browser wraps playwright behind small interfaces so that the
// rendering strategy can own a browser for exactly one call and tests can
// substitute a resource-tracking double.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/supplier-extractor/internal/stealth"
	"github.com/playwright-community/playwright-go"
)

type Options struct {
	Headless       bool
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
	ProxyServer    string
	ExtraHeaders   map[string]string
	InitScript     string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		UserAgent:      stealth.DefaultUserAgents[0],
		ViewportWidth:  stealth.ViewportWidth,
		ViewportHeight: stealth.ViewportHeight,
		Locale:         "en-US",
		TimezoneID:     "Europe/Oslo",
		ExtraHeaders:   stealth.Headers("en-US"),
		InitScript:     stealth.InitScript("en-US"),
	}
}

// Launcher starts a browser session.
type Launcher interface {
	Launch(ctx context.Context, opts *Options) (Session, error)
}

// Session is a running browser with one context.
type Session interface {
	NewPage() (Page, error)
	Close() error
}

// Page is the subset of page operations the renderer needs.
type Page interface {
	Goto(url string, timeout time.Duration) error
	WaitFor(selector string, timeout time.Duration) error
	Scroll() error
	Title() (string, error)
	Content() (string, error)
	Close() error
}

// PlaywrightLauncher starts chromium through playwright. Nothing is started
// until Launch is called, so constructing one is free.
type PlaywrightLauncher struct {
	logger *slog.Logger
}

func NewPlaywrightLauncher(logger *slog.Logger) *PlaywrightLauncher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaywrightLauncher{logger: logger.With("component", "browser")}
}

func (l *PlaywrightLauncher) Launch(ctx context.Context, opts *Options) (Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     append(stealth.LaunchArgs(), "--user-agent="+opts.UserAgent),
	}

	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{
			Server: opts.ProxyServer,
		}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(opts.UserAgent),
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            playwright.String(opts.Locale),
		TimezoneId:        playwright.String(opts.TimezoneID),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: opts.ExtraHeaders,
	}

	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if opts.InitScript != "" {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(opts.InitScript)}); err != nil {
			bctx.Close()
			browser.Close()
			pw.Stop()
			return nil, fmt.Errorf("failed to add init script: %w", err)
		}
	}

	l.logger.Debug("browser launched", "headless", opts.Headless, "locale", opts.Locale)

	return &playwrightSession{
		pw:      pw,
		browser: browser,
		context: bctx,
	}, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

func (s *playwrightSession) NewPage() (Page, error) {
	page, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (s *playwrightSession) Close() error {
	var errs []error

	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// Scroll nudges lazy-loaded galleries into loading.
func (p *playwrightPage) Scroll() error {
	_, err := p.page.Evaluate(`() => window.scrollBy(0, Math.max(600, document.body.scrollHeight / 3))`)
	return err
}

func (p *playwrightPage) Title() (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
