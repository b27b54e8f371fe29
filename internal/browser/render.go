package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/supplier-extractor/internal/stealth"
)

var ErrBlocked = errors.New("blocked by anti-bot page")

// blockMarkers are substrings of the challenge pages suppliers serve to
// suspected automation.
var blockMarkers = []string{
	"slide to verify",
	"verify you are human",
	"captcha-container",
	"/_____tmd_____/punish",
	"security verification",
}

// RenderRequest configures one rendering.
type RenderRequest struct {
	Locale          string
	UserAgent       string
	ReadySelector   string
	NavigateTimeout time.Duration
	SettleDelay     time.Duration
}

// Renderer returns the HTML of a page after its scripts have run.
type Renderer interface {
	Render(ctx context.Context, rawURL string, req RenderRequest) (string, error)
}

// ScopedRenderer launches a fresh browser for every Render call and closes
// the page and the browser before returning, on every path.
type ScopedRenderer struct {
	launcher Launcher
	headless bool
	logger   *slog.Logger
}

func NewScopedRenderer(launcher Launcher, headless bool, logger *slog.Logger) *ScopedRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopedRenderer{
		launcher: launcher,
		headless: headless,
		logger:   logger.With("component", "renderer"),
	}
}

func (r *ScopedRenderer) Render(ctx context.Context, rawURL string, req RenderRequest) (html string, err error) {
	opts := DefaultOptions()
	opts.Headless = r.headless
	if req.UserAgent != "" {
		opts.UserAgent = req.UserAgent
	}
	if req.Locale != "" {
		opts.Locale = req.Locale
		opts.ExtraHeaders = stealth.Headers(req.Locale)
		opts.InitScript = stealth.InitScript(req.Locale)
	}

	session, err := r.launcher.Launch(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			r.logger.Warn("failed to close browser", "error", closeErr)
		}
	}()

	page, err := session.NewPage()
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			r.logger.Warn("failed to close page", "error", closeErr)
		}
	}()

	if err := page.Goto(rawURL, req.NavigateTimeout); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}

	if req.ReadySelector != "" {
		if err := page.WaitFor(req.ReadySelector, req.NavigateTimeout); err != nil {
			r.logger.Debug("ready selector not found", "selector", req.ReadySelector, "error", err)
		}
	}

	if err := page.Scroll(); err != nil {
		r.logger.Debug("scroll failed", "error", err)
	}

	if err := sleep(ctx, req.SettleDelay); err != nil {
		return "", err
	}

	html, err = page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}

	title, _ := page.Title()
	if isBlocked(title, html) {
		return "", ErrBlocked
	}

	r.logger.Debug("rendered page", "url", rawURL, "bytes", len(html))
	return html, nil
}

func isBlocked(title, html string) bool {
	lower := strings.ToLower(title + " " + html)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
