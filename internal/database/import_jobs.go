package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"

	ItemStatusPending    = "pending"
	ItemStatusProcessing = "processing"
	ItemStatusCompleted  = "completed"
	ItemStatusFailed     = "failed"
)

var (
	ErrJobNotFound    = errors.New("import job not found")
	ErrNoPendingItems = errors.New("no pending import items")
)

// ImportJob is a batch of product URLs submitted together.
type ImportJob struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"`
	TotalItems     int           `json:"total_items"`
	CompletedItems int           `json:"completed_items"`
	FailedItems    int           `json:"failed_items"`
	CreatedAt      time.Time     `json:"created_at"`
	StartedAt      *time.Time    `json:"started_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	Items          []*ImportItem `json:"items,omitempty"`
}

// ImportItem is one URL of a job.
type ImportItem struct {
	ID       string          `json:"id"`
	JobID    string          `json:"job_id"`
	Position int             `json:"position"`
	URL      string          `json:"url"`
	Supplier string          `json:"supplier"`
	Status   string          `json:"status"`
	Attempts int             `json:"attempts"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ItemOutcome is what the worker learned about one item.
type ItemOutcome struct {
	Success bool
	Result  json.RawMessage
	Error   string
}

type ImportJobRepository struct {
	db     *DB
	outbox *OutboxRepository
}

func NewImportJobRepository(db *DB) *ImportJobRepository {
	return &ImportJobRepository{db: db, outbox: NewOutboxRepository(db)}
}

// CreateJob inserts a job and one pending item per URL. supplierOf may
// return "" for unsupported URLs; the worker fails those items.
func (r *ImportJobRepository) CreateJob(ctx context.Context, urls []string, supplierOf func(string) string) (*ImportJob, error) {
	job := &ImportJob{
		ID:         uuid.NewString(),
		Status:     JobStatusPending,
		TotalItems: len(urls),
		CreatedAt:  time.Now(),
	}

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO import_jobs (id, status, total_items, created_at)
			VALUES ($1, $2, $3, $4)`,
			job.ID, job.Status, job.TotalItems, job.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert job: %w", err)
		}

		batch := &pgx.Batch{}
		for i, u := range urls {
			item := &ImportItem{
				ID:       uuid.NewString(),
				JobID:    job.ID,
				Position: i,
				URL:      u,
				Status:   ItemStatusPending,
			}
			if supplierOf != nil {
				item.Supplier = supplierOf(u)
			}
			batch.Queue(`
				INSERT INTO import_items (id, job_id, position, url, supplier, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
				item.ID, item.JobID, item.Position, item.URL, item.Supplier, item.Status, job.CreatedAt)
			job.Items = append(job.Items, item)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

func (r *ImportJobRepository) GetJob(ctx context.Context, jobID string) (*ImportJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, ErrJobNotFound
	}

	job := &ImportJob{}
	err := r.db.QueryRow(ctx, `
		SELECT id, status, total_items, completed_items, failed_items,
		       created_at, started_at, completed_at
		FROM import_jobs
		WHERE id = $1`, jobID).Scan(
		&job.ID, &job.Status, &job.TotalItems, &job.CompletedItems, &job.FailedItems,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, job_id, position, url, supplier, status, attempts, result, error
		FROM import_items
		WHERE job_id = $1
		ORDER BY position`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job items: %w", err)
	}

	job.Items, err = pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan job items: %w", err)
	}

	return job, nil
}

// ListJobs returns the most recent jobs without their items.
func (r *ImportJobRepository) ListJobs(ctx context.Context, limit int) ([]*ImportJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, status, total_items, completed_items, failed_items,
		       created_at, started_at, completed_at
		FROM import_jobs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*ImportJob, error) {
		job := &ImportJob{}
		err := row.Scan(
			&job.ID, &job.Status, &job.TotalItems, &job.CompletedItems, &job.FailedItems,
			&job.CreatedAt, &job.StartedAt, &job.CompletedAt,
		)
		return job, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan jobs: %w", err)
	}

	return jobs, nil
}

// ClaimNextItem marks the oldest pending item as processing and returns it.
// Concurrent workers never claim the same item.
func (r *ImportJobRepository) ClaimNextItem(ctx context.Context) (*ImportItem, error) {
	var item *ImportItem

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, job_id, position, url, supplier, status, attempts, result, error
			FROM import_items
			WHERE status = $1
			ORDER BY created_at, position
			LIMIT 1
			FOR UPDATE SKIP LOCKED`, ItemStatusPending)
		if err != nil {
			return fmt.Errorf("failed to select item: %w", err)
		}

		item, err = pgx.CollectExactlyOneRow(rows, scanItem)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoPendingItems
		}
		if err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}

		item.Status = ItemStatusProcessing
		item.Attempts++
		if _, err := tx.Exec(ctx, `
			UPDATE import_items SET status = $1, attempts = $2, updated_at = now()
			WHERE id = $3`, item.Status, item.Attempts, item.ID); err != nil {
			return fmt.Errorf("failed to claim item: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE import_jobs SET status = $1, started_at = COALESCE(started_at, now())
			WHERE id = $2 AND status = $3`, JobStatusRunning, item.JobID, JobStatusPending)
		if err != nil {
			return fmt.Errorf("failed to start job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// FinishItem stores the outcome of item, updates the job counters and, when
// event is set, adds it to the outbox in the same transaction.
func (r *ImportJobRepository) FinishItem(ctx context.Context, item *ImportItem, outcome ItemOutcome, event *OutboxEvent) error {
	status := ItemStatusFailed
	counter := "failed_items"
	if outcome.Success {
		status = ItemStatusCompleted
		counter = "completed_items"
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE import_items SET status = $1, result = $2, error = $3, updated_at = now()
			WHERE id = $4`, status, nullableJSON(outcome.Result), outcome.Error, item.ID)
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE import_jobs
			SET `+counter+` = `+counter+` + 1,
			    status = CASE WHEN completed_items + failed_items + 1 >= total_items THEN $1 ELSE status END,
			    completed_at = CASE WHEN completed_items + failed_items + 1 >= total_items THEN now() ELSE completed_at END
			WHERE id = $2`, JobStatusCompleted, item.JobID)
		if err != nil {
			return fmt.Errorf("failed to update job: %w", err)
		}

		if event != nil {
			if err := r.outbox.InsertWithTx(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

// ResetStale returns items stuck in processing, for example after a crash,
// to pending.
func (r *ImportJobRepository) ResetStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE import_items SET status = $1, updated_at = now()
		WHERE status = $2 AND updated_at < $3`,
		ItemStatusPending, ItemStatusProcessing, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale items: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanItem(row pgx.CollectableRow) (*ImportItem, error) {
	item := &ImportItem{}
	var result []byte
	err := row.Scan(
		&item.ID, &item.JobID, &item.Position, &item.URL, &item.Supplier,
		&item.Status, &item.Attempts, &result, &item.Error,
	)
	if len(result) > 0 {
		item.Result = json.RawMessage(result)
	}
	return item, err
}

func nullableJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
