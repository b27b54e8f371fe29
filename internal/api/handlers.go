// Package api exposes the extractor and import jobs over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/maltedev/supplier-extractor/internal/database"
	"github.com/maltedev/supplier-extractor/internal/extractor"
	"github.com/maltedev/supplier-extractor/internal/jobs"
	"github.com/maltedev/supplier-extractor/internal/supplier"
)

// Extractors resolves a URL to its supplier extractor.
type Extractors interface {
	ForURL(rawURL string) (extractor.Extractor, bool)
}

// JobService manages import jobs. *jobs.Manager implements it.
type JobService interface {
	CreateJob(ctx context.Context, urls []string) (*database.ImportJob, error)
	GetJob(ctx context.Context, jobID string) (*database.ImportJob, error)
	ListJobs(ctx context.Context) ([]*database.ImportJob, error)
}

// OutboxStats reports relay backlog for the health check.
type OutboxStats interface {
	Stats(ctx context.Context) (database.RelayStats, error)
}

type Handlers struct {
	extractors Extractors
	jobs       JobService
	outbox     OutboxStats
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewHandlers wires the handlers. jobs and outbox may be nil when the
// service runs without a database; the import endpoints then answer 503.
func NewHandlers(extractors Extractors, jobs JobService, outbox OutboxStats, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		extractors: extractors,
		jobs:       jobs,
		outbox:     outbox,
		validate:   validator.New(),
		logger:     logger.With("component", "api"),
	}
}

type URLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type IdentifyResponse struct {
	Supplier  string `json:"supplier,omitempty"`
	Supported bool   `json:"supported"`
}

type CreateImportRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,dive,required"`
}

type CreateImportResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Items   int    `json:"items"`
	Message string `json:"message"`
}

// Extract runs one extraction and returns the ExtractionResult. A failed
// extraction is still a 200; the result carries the error.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if !h.decode(w, r, &req) {
		return
	}

	ext, ok := h.extractors.ForURL(req.URL)
	if !ok {
		h.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s: %s", extractor.ErrUnsupportedSupplier, req.URL))
		return
	}

	result := ext.ScrapeProduct(r.Context(), req.URL)
	if !result.Success {
		h.logger.Warn("extraction failed", "url", req.URL, "error", result.Error)
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) Identify(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if !h.decode(w, r, &req) {
		return
	}

	tag, ok := supplier.Identify(req.URL)
	h.respondJSON(w, http.StatusOK, IdentifyResponse{Supplier: string(tag), Supported: ok})
}

func (h *Handlers) CreateImport(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		h.respondError(w, http.StatusServiceUnavailable, "imports are disabled")
		return
	}

	var req CreateImportRequest
	if !h.decode(w, r, &req) {
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), req.URLs)
	if errors.Is(err, jobs.ErrNoURLs) || errors.Is(err, jobs.ErrTooManyURLs) {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to create import job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create import job")
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateImportResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Items:   job.TotalItems,
		Message: "Import job created",
	})
}

func (h *Handlers) GetImport(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		h.respondError(w, http.StatusServiceUnavailable, "imports are disabled")
		return
	}

	jobID := chi.URLParam(r, "jobID")
	job, err := h.jobs.GetJob(r.Context(), jobID)
	if errors.Is(err, database.ErrJobNotFound) {
		h.respondError(w, http.StatusNotFound, "import job not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get import job", "id", jobID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get import job")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

func (h *Handlers) ListImports(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		h.respondError(w, http.StatusServiceUnavailable, "imports are disabled")
		return
	}

	list, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list import jobs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list import jobs")
		return
	}
	if list == nil {
		list = []*database.ImportJob{}
	}

	h.respondJSON(w, http.StatusOK, list)
}

// Health reports ok, degrading to warning on a large outbox backlog and to
// error (503) when many events were dead-lettered.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"suppliers": supplier.All(),
	}
	status := http.StatusOK

	if h.outbox != nil {
		stats, err := h.outbox.Stats(r.Context())
		if err != nil {
			health["status"] = "error"
			health["message"] = "outbox unavailable"
			status = http.StatusServiceUnavailable
		} else {
			health["outbox"] = stats
			if stats.Pending > 1000 {
				health["status"] = "warning"
				health["message"] = "high number of pending outbox events"
			}
			if stats.DeadLetter > 100 {
				health["status"] = "error"
				health["message"] = "high number of dead letter events"
				status = http.StatusServiceUnavailable
			}
		}
	}

	h.respondJSON(w, status, health)
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
	return "invalid request"
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
