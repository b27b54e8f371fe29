// Package storage keeps a resumable record of bulk extraction runs in a
// JSON file keyed by product URL.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/maltedev/supplier-extractor/internal/models"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Entry struct {
	URL       string                   `json:"url"`
	Supplier  string                   `json:"supplier,omitempty"`
	Status    Status                   `json:"status"`
	Title     string                   `json:"title,omitempty"`
	Price     string                   `json:"price,omitempty"`
	Variants  int                      `json:"variants,omitempty"`
	Attempts  int                      `json:"attempts"`
	Error     string                   `json:"error,omitempty"`
	Product   *models.ExtractedProduct `json:"product,omitempty"`
	AddedAt   time.Time                `json:"added_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

type ResultStorage struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	filename string
}

// NewResultStorage opens filename, loading earlier progress when the file
// exists. Entries left in processing by an interrupted run are reset to
// pending.
func NewResultStorage(filename string) (*ResultStorage, error) {
	rs := &ResultStorage{
		entries:  make(map[string]*Entry),
		filename: filename,
	}

	if err := rs.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	for _, e := range rs.entries {
		if e.Status == StatusProcessing {
			e.Status = StatusPending
		}
	}

	return rs, nil
}

// AddPending registers urls that are not yet known. Known URLs keep their
// status so a rerun skips finished work.
func (rs *ResultStorage) AddPending(urls []string, supplierOf func(string) string) (int, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	added := 0
	now := time.Now()
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, exists := rs.entries[u]; exists {
			continue
		}
		e := &Entry{URL: u, Status: StatusPending, AddedAt: now, UpdatedAt: now}
		if supplierOf != nil {
			e.Supplier = supplierOf(u)
		}
		rs.entries[u] = e
		added++
	}

	return added, rs.save()
}

func (rs *ResultStorage) Get(url string) (*Entry, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	e, exists := rs.entries[url]
	if !exists {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// Pending returns URLs still to be processed, sorted for a stable run order.
func (rs *ResultStorage) Pending() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	var pending []string
	for u, e := range rs.entries {
		if e.Status == StatusPending {
			pending = append(pending, u)
		}
	}
	sort.Strings(pending)
	return pending
}

func (rs *ResultStorage) MarkProcessing(url string) error {
	return rs.update(url, func(e *Entry) {
		e.Status = StatusProcessing
		e.Attempts++
	})
}

// Complete stores the outcome of one extraction call.
func (rs *ResultStorage) Complete(url string, result *models.ExtractionResult, keepProduct bool) error {
	return rs.update(url, func(e *Entry) {
		if result == nil || !result.Success || result.Data == nil {
			e.Status = StatusFailed
			if result != nil {
				e.Error = result.Error
			}
			return
		}
		e.Status = StatusCompleted
		e.Error = ""
		e.Title = result.Data.Title
		e.Price = result.Data.Price.Amount.String() + " " + result.Data.Price.Currency
		e.Variants = len(result.Data.Variants)
		if keepProduct {
			e.Product = result.Data
		}
	})
}

func (rs *ResultStorage) Fail(url string, errorMsg string) error {
	return rs.update(url, func(e *Entry) {
		e.Status = StatusFailed
		e.Error = errorMsg
	})
}

func (rs *ResultStorage) Stats() map[Status]int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	stats := make(map[Status]int)
	for _, e := range rs.entries {
		stats[e.Status]++
	}
	return stats
}

func (rs *ResultStorage) Total() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.entries)
}

func (rs *ResultStorage) update(url string, fn func(*Entry)) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	e, exists := rs.entries[url]
	if !exists {
		return fmt.Errorf("entry not found: %s", url)
	}

	fn(e)
	e.UpdatedAt = time.Now()

	return rs.save()
}

func (rs *ResultStorage) save() error {
	if rs.filename == "" {
		return nil
	}

	data, err := json.MarshalIndent(rs.entries, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := rs.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, rs.filename)
}

func (rs *ResultStorage) Load() error {
	if rs.filename == "" {
		return nil
	}

	data, err := os.ReadFile(rs.filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &rs.entries)
}
