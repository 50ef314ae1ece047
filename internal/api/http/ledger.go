package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

// LedgerReader reads a ledger file.
type LedgerReader interface {
	ReadAll(ctx context.Context, file string) ([]domain.LedgerRecord, error)
}

// LedgerHandler lists ledger contents by name.
type LedgerHandler struct {
	reader LedgerReader
	files  map[string]string
	logger *slog.Logger
}

// NewLedgerHandler serves the ledgers in files, keyed by URL name.
func NewLedgerHandler(reader LedgerReader, files map[string]string, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		reader: reader,
		files:  files,
		logger: logger,
	}
}

type ledgerResponse struct {
	Name    string                `json:"name"`
	Count   int                   `json:"count"`
	Records []domain.LedgerRecord `json:"records"`
}

// GetLedger handles GET /ledger/{name}. A missing or empty ledger is an empty list.
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	file, ok := h.files[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown ledger")
		return
	}

	records, err := h.reader.ReadAll(r.Context(), file)
	switch {
	case errors.Is(err, errpkg.ErrMissingLedger), errors.Is(err, errpkg.ErrEmptyLedger):
		records = []domain.LedgerRecord{}
	case errors.Is(err, errpkg.ErrMalformedRecord):
		h.logger.Error("ledger is corrupt", "ledger", name, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to read ledger", "ledger", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ledgerResponse{
		Name:    name,
		Count:   len(records),
		Records: records,
	})
}
