// Package events defines the messages handed to the catalog writer through
// the transactional outbox.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/supplier-extractor/internal/database"
	"github.com/maltedev/supplier-extractor/internal/models"
)

type EventType string

const (
	// EventTypeExtractionCompleted is emitted once per finished import item,
	// successful or not.
	EventTypeExtractionCompleted EventType = "EXTRACTION_COMPLETED"

	AggregateImportItem = "import_item"
)

// ExtractionCompletedPayload is the message body the catalog writer reads.
type ExtractionCompletedPayload struct {
	EventID   string                   `json:"event_id"`
	EventType string                   `json:"event_type"`
	Timestamp time.Time                `json:"timestamp"`
	JobID     string                   `json:"job_id"`
	ItemID    string                   `json:"item_id"`
	SourceURL string                   `json:"source_url"`
	Supplier  string                   `json:"supplier,omitempty"`
	Success   bool                     `json:"success"`
	Error     string                   `json:"error,omitempty"`
	Product   *models.ExtractedProduct `json:"product,omitempty"`
	Source    string                   `json:"source"`
}

// NewExtractionCompleted builds the payload for one import item.
func NewExtractionCompleted(item *database.ImportItem, result *models.ExtractionResult) *ExtractionCompletedPayload {
	p := &ExtractionCompletedPayload{
		EventID:   uuid.NewString(),
		EventType: string(EventTypeExtractionCompleted),
		Timestamp: time.Now().UTC(),
		JobID:     item.JobID,
		ItemID:    item.ID,
		SourceURL: item.URL,
		Supplier:  item.Supplier,
		Source:    "supplier-extractor",
	}
	if result == nil {
		p.Error = "no result"
		return p
	}
	p.Success = result.Success && result.Data != nil
	p.Error = result.Error
	if p.Success {
		p.Product = result.Data
		if p.Supplier == "" {
			p.Supplier = result.Data.Supplier
		}
	}
	return p
}

// OutboxEvent wraps the payload for insertion into the outbox.
func (p *ExtractionCompletedPayload) OutboxEvent() (*database.OutboxEvent, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return &database.OutboxEvent{
		AggregateType: AggregateImportItem,
		AggregateID:   p.ItemID,
		EventType:     p.EventType,
		Payload:       data,
		TargetStream:  database.ImportStream,
	}, nil
}
