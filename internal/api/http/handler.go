package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

// BatchServiceI defines the interface for batch-related business logic.
type BatchServiceI interface {
	Submit(ctx context.Context, req domain.CreateBatchRequest) (*domain.Batch, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Batch, error)
}

// BatchHandler handles HTTP requests for batches.
type BatchHandler struct {
	batchService BatchServiceI
	logger       *slog.Logger
}

// NewBatchHandler creates a new BatchHandler with the provided service and logger.
func NewBatchHandler(batchService BatchServiceI, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
		logger:       logger,
	}
}

// CreateBatch handles the HTTP POST /batches request.
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	batch, err := h.batchService.Submit(ctx, req)
	switch {
	case errors.Is(err, errpkg.ErrConfiguration):
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, errpkg.ErrServiceClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to submit batch", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("batch created", "batch_id", batch.ID, "url", batch.URL)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id": batch.ID,
		"status":   batch.Status,
	})
}

// GetBatch handles the HTTP GET /batches/{batchID} request.
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch ID")
		return
	}

	batch, err := h.batchService.Get(ctx, batchID)
	if errors.Is(err, errpkg.ErrBatchNotFound) {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get batch", "batch_id", batchID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, domain.NewBatchResponse(batch))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
