package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates the HTTP router with middleware, batch and ledger routes,
// health check and the Prometheus metrics endpoint.
func NewRouter(batchService BatchServiceI, ledger *LedgerHandler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	batchHandler := NewBatchHandler(batchService, logger)

	r.Route("/batches", func(r chi.Router) {
		r.Post("/", batchHandler.CreateBatch)
		r.Get("/{batchID}", batchHandler.GetBatch)
	})

	r.Get("/ledger/{name}", ledger.GetLedger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
