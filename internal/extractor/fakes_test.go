package extractor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/maltedev/supplier-extractor/internal/browser"
	"github.com/maltedev/supplier-extractor/internal/fetch"
	"github.com/maltedev/supplier-extractor/internal/models"
)

type fakeFetcher struct {
	html string
	err  error

	mu    sync.Mutex
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string, req fetch.Request) (*fetch.Document, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &fetch.Document{URL: rawURL, FinalURL: rawURL, HTML: f.html, StatusCode: 200}, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRenderer struct {
	html  string
	err   error
	calls int
}

func (r *fakeRenderer) Render(ctx context.Context, rawURL string, req browser.RenderRequest) (string, error) {
	r.calls++
	return r.html, r.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() models.ExtractionOptions {
	opts := models.DefaultExtractionOptions()
	opts.MinDelay = 0
	opts.MaxDelay = 0
	opts.SettleDelay = 0
	opts.NavigateTimeout = 200 * time.Millisecond
	opts.UserAgentRotation = false
	return opts
}

func testDeps(f fetch.Fetcher, r browser.Renderer) Deps {
	return Deps{
		Fetcher:  f,
		Renderer: r,
		Logger:   quietLogger(),
		Options:  testOptions(),
	}
}
