// Package fetch retrieves supplier pages over plain HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/maltedev/supplier-extractor/internal/stealth"
)

// MaxBodySize caps how much of a page is read.
const MaxBodySize = 8 << 20

var ErrInvalidURL = errors.New("invalid URL")

// Request configures a single fetch.
type Request struct {
	Locale            string
	UserAgents        []string
	UserAgentRotation bool
	Timeout           time.Duration
}

// Document is a fetched page.
type Document struct {
	URL        string
	FinalURL   string
	HTML       string
	StatusCode int
}

// Fetcher retrieves the raw HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, req Request) (*Document, error)
}

// HTTPFetcher is a Fetcher backed by net/http.
type HTTPFetcher struct {
	client *http.Client
	logger *slog.Logger
}

func NewHTTPFetcher(client *http.Client, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client: client,
		logger: logger.With("component", "fetcher"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, req Request) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", stealth.UserAgent(req.UserAgents, req.UserAgentRotation))
	for key, value := range stealth.Headers(req.Locale) {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	f.logger.Debug("fetched page",
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	return &Document{
		URL:        rawURL,
		FinalURL:   resp.Request.URL.String(),
		HTML:       string(body),
		StatusCode: resp.StatusCode,
	}, nil
}
