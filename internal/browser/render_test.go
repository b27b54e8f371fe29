package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maltedev/supplier-extractor/internal/browser"
	"github.com/maltedev/supplier-extractor/internal/browser/browsertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderRequest() browser.RenderRequest {
	return browser.RenderRequest{
		Locale:          "nb-NO",
		UserAgent:       "test-agent",
		ReadySelector:   "h1",
		NavigateTimeout: 50 * time.Millisecond,
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := browser.DefaultOptions()

	assert.True(t, opts.Headless)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, 1080, opts.ViewportHeight)
	assert.Equal(t, "en-US", opts.Locale)
	assert.NotEmpty(t, opts.InitScript)
}

func TestScopedRendererClosesOnSuccess(t *testing.T) {
	launcher := &browsertest.TrackingLauncher{HTML: "<html><h1>Rendered</h1></html>"}
	r := browser.NewScopedRenderer(launcher, true, nil)

	html, err := r.Render(context.Background(), "https://www.temu.com/x.html", renderRequest())

	require.NoError(t, err)
	assert.Contains(t, html, "Rendered")
	sessions, pages := launcher.Open()
	assert.Zero(t, sessions)
	assert.Zero(t, pages)
	assert.Equal(t, "test-agent", launcher.LastOptions().UserAgent)
	assert.Equal(t, "nb-NO", launcher.LastOptions().Locale)
}

func TestScopedRendererClosesOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		launcher *browsertest.TrackingLauncher
	}{
		{"navigation error", &browsertest.TrackingLauncher{GotoErr: errors.New("net::ERR_CONNECTION_RESET")}},
		{"navigation timeout", &browsertest.TrackingLauncher{GotoDelay: time.Second}},
		{"content error", &browsertest.TrackingLauncher{ContentErr: errors.New("target closed")}},
		{"blocked page", &browsertest.TrackingLauncher{HTML: "<div>Slide to verify</div>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := browser.NewScopedRenderer(tt.launcher, true, nil)

			_, err := r.Render(context.Background(), "https://www.temu.com/x.html", renderRequest())

			assert.Error(t, err)
			sessions, pages := tt.launcher.Open()
			assert.Zero(t, sessions)
			assert.Zero(t, pages)
		})
	}
}

func TestScopedRendererClosesOnPanic(t *testing.T) {
	launcher := &browsertest.TrackingLauncher{PanicOnGoto: true}
	r := browser.NewScopedRenderer(launcher, true, nil)

	assert.Panics(t, func() {
		r.Render(context.Background(), "https://www.temu.com/x.html", renderRequest())
	})

	sessions, pages := launcher.Open()
	assert.Zero(t, sessions)
	assert.Zero(t, pages)
}

func TestScopedRendererCancelledDuringSettle(t *testing.T) {
	launcher := &browsertest.TrackingLauncher{HTML: "<h1>x</h1>"}
	r := browser.NewScopedRenderer(launcher, true, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	req := renderRequest()
	req.SettleDelay = time.Minute
	_, err := r.Render(ctx, "https://www.temu.com/x.html", req)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	sessions, pages := launcher.Open()
	assert.Zero(t, sessions)
	assert.Zero(t, pages)
}

func TestScopedRendererLaunchFailure(t *testing.T) {
	launcher := &browsertest.TrackingLauncher{LaunchErr: errors.New("chromium missing")}
	r := browser.NewScopedRenderer(launcher, true, nil)

	_, err := r.Render(context.Background(), "https://www.temu.com/x.html", renderRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chromium missing")
	assert.Zero(t, launcher.Launched())
}
