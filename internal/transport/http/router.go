// Package httptransport exposes the registry over HTTP.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"asset-registry/internal/platform/middleware"
)

// NewRouter wires all public endpoints.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	// The write pipeline performs synchronous network I/O under the write
	// lock; the request timeout is the upper bound on how long it may hold
	// the lock.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/assets", h.handleSubmit)
	r.Get("/assets/{assetID}", h.handleGet)
	r.Delete("/assets/{assetID}", h.handleDelete)

	r.Get("/healthz", h.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
