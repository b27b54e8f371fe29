// Package jobs runs bulk import jobs: a job is a list of product URLs that a
// background worker extracts one at a time.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/supplier-extractor/internal/database"
	"github.com/maltedev/supplier-extractor/internal/extractor"
	"github.com/maltedev/supplier-extractor/internal/ratelimit"
	"github.com/maltedev/supplier-extractor/internal/supplier"
)

// MaxURLsPerJob bounds a single import request.
const MaxURLsPerJob = 500

var (
	ErrNoURLs      = errors.New("at least one URL is required")
	ErrTooManyURLs = fmt.Errorf("at most %d URLs per job", MaxURLsPerJob)
)

// Store persists jobs and items. *database.ImportJobRepository implements it.
type Store interface {
	CreateJob(ctx context.Context, urls []string, supplierOf func(string) string) (*database.ImportJob, error)
	GetJob(ctx context.Context, jobID string) (*database.ImportJob, error)
	ListJobs(ctx context.Context, limit int) ([]*database.ImportJob, error)
	ClaimNextItem(ctx context.Context) (*database.ImportItem, error)
	FinishItem(ctx context.Context, item *database.ImportItem, outcome database.ItemOutcome, event *database.OutboxEvent) error
	ResetStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Extractors resolves a URL to its supplier extractor.
// *extractor.Factory implements it.
type Extractors interface {
	ForURL(rawURL string) (extractor.Extractor, bool)
}

type Manager struct {
	store      Store
	extractors Extractors
	limiter    ratelimit.RateLimiter
	logger     *slog.Logger
}

func NewManager(store Store, extractors Extractors, limiter ratelimit.RateLimiter, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:      store,
		extractors: extractors,
		limiter:    limiter,
		logger:     logger.With("component", "job_manager"),
	}
}

// CreateJob queues urls for extraction. Blank lines are ignored and
// duplicates are kept once, in first-seen order.
func (m *Manager) CreateJob(ctx context.Context, urls []string) (*database.ImportJob, error) {
	cleaned := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		cleaned = append(cleaned, u)
	}

	if len(cleaned) == 0 {
		return nil, ErrNoURLs
	}
	if len(cleaned) > MaxURLsPerJob {
		return nil, ErrTooManyURLs
	}

	job, err := m.store.CreateJob(ctx, cleaned, supplierOf)
	if err != nil {
		return nil, err
	}

	m.logger.Info("import job created", "id", job.ID, "urls", len(cleaned))
	return job, nil
}

func (m *Manager) GetJob(ctx context.Context, jobID string) (*database.ImportJob, error) {
	return m.store.GetJob(ctx, jobID)
}

func (m *Manager) ListJobs(ctx context.Context) ([]*database.ImportJob, error) {
	return m.store.ListJobs(ctx, 100)
}

func supplierOf(rawURL string) string {
	tag, _ := supplier.Identify(rawURL)
	return string(tag)
}
