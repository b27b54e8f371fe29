package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/maltedev/supplier-extractor/internal/database"
	"github.com/maltedev/supplier-extractor/internal/events"
	"github.com/maltedev/supplier-extractor/internal/extractor"
	"github.com/maltedev/supplier-extractor/internal/models"
)

// staleAfter is how long an item may stay in processing before a restarted
// worker takes it again.
const staleAfter = 10 * time.Minute

// StartWorker processes pending items until ctx is done. Items are handled
// sequentially with the limiter's delay between extraction calls; when the
// queue is empty the worker sleeps for pollInterval.
func (m *Manager) StartWorker(ctx context.Context, pollInterval time.Duration) {
	m.logger.Info("import worker started", "poll_interval", pollInterval)

	if n, err := m.store.ResetStale(ctx, staleAfter); err != nil {
		m.logger.Error("failed to reset stale items", "error", err)
	} else if n > 0 {
		m.logger.Info("reset stale items", "count", n)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		for {
			processed, err := m.processNext(ctx)
			if err != nil && ctx.Err() == nil {
				m.logger.Error("failed to process import item", "error", err)
			}
			if !processed || ctx.Err() != nil {
				break
			}
		}

		select {
		case <-ctx.Done():
			m.logger.Info("import worker stopping")
			return
		case <-ticker.C:
		}
	}
}

// processNext handles one pending item. It reports whether an item was
// claimed.
func (m *Manager) processNext(ctx context.Context) (bool, error) {
	item, err := m.store.ClaimNextItem(ctx)
	if errors.Is(err, database.ErrNoPendingItems) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim item: %w", err)
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return true, err
		}
	}

	m.logger.Info("extracting import item", "item", item.ID, "job", item.JobID, "url", item.URL)
	result := m.extract(ctx, item)

	// An interrupted call stays in processing and is picked up again after
	// a restart.
	if ctx.Err() != nil {
		return true, ctx.Err()
	}

	return true, m.finish(ctx, item, result)
}

func (m *Manager) extract(ctx context.Context, item *database.ImportItem) *models.ExtractionResult {
	ext, ok := m.extractors.ForURL(item.URL)
	if !ok {
		return models.Failed(fmt.Errorf("%w: %s", extractor.ErrUnsupportedSupplier, item.URL), nil)
	}
	return ext.ScrapeProduct(ctx, item.URL)
}

func (m *Manager) finish(ctx context.Context, item *database.ImportItem, result *models.ExtractionResult) error {
	stored := *result
	stored.RawHTML = ""
	raw, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	payload := events.NewExtractionCompleted(item, result)
	event, err := payload.OutboxEvent()
	if err != nil {
		return err
	}

	outcome := database.ItemOutcome{
		Success: payload.Success,
		Result:  raw,
		Error:   payload.Error,
	}
	if err := m.store.FinishItem(ctx, item, outcome, event); err != nil {
		return fmt.Errorf("failed to finish item %s: %w", item.ID, err)
	}

	if outcome.Success {
		m.logger.Info("import item completed", "item", item.ID, "title", result.Data.Title)
	} else {
		m.logger.Warn("import item failed", "item", item.ID, "error", outcome.Error)
	}
	return nil
}
