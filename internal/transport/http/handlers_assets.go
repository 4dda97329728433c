package httptransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"asset-registry/internal/asset"
	"asset-registry/internal/platform/middleware"
	"asset-registry/internal/registry"
	"asset-registry/internal/transport/http/shared"
	dErrors "asset-registry/pkg/domain-errors"
)

// HealthChecker reports whether an optional backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler is the thin HTTP layer over the registry. Transport concerns only;
// verification and persistence live behind Registry.
type Handler struct {
	logger   *slog.Logger
	registry *registry.Registry
	chain    asset.ChainQuery
	checks   []HealthChecker
}

func NewHandler(reg *registry.Registry, chain asset.ChainQuery, logger *slog.Logger, checks ...HealthChecker) *Handler {
	return &Handler{logger: logger, registry: reg, chain: chain, checks: checks}
}

// handleSubmit accepts an issuer submission, resolves its issuance data from
// the chain, and runs the full write protocol.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if h.chain == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "no chain backend configured, submissions unavailable"))
		return
	}

	var req asset.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeBadRequest, "invalid request body", err))
		return
	}

	record, err := asset.FromRequest(ctx, req, h.chain)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected submission",
			"request_id", requestID,
			"asset_id", req.AssetID.String(),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	if err := h.registry.Write(ctx, record); err != nil {
		h.logger.WarnContext(ctx, "write failed",
			"request_id", requestID,
			"asset_id", record.AssetID.String(),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, record)
}

// handleGet returns a persisted record, or 404 for ids never written.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := asset.NewIDFromHex(chi.URLParam(r, "assetID"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeBadRequest, "invalid asset id", err))
		return
	}

	record, found, err := h.registry.Load(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if !found {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "asset record not found"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

type deleteRequest struct {
	Signature string `json:"signature"`
}

// handleDelete removes a record when the issuer proves authorization with a
// detached signature over the fixed deletion message.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := asset.NewIDFromHex(chi.URLParam(r, "assetID"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeBadRequest, "invalid asset id", err))
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeBadRequest, "invalid request body", err))
		return
	}
	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeBadRequest, "invalid signature base64", err))
		return
	}

	if err := h.registry.Delete(r.Context(), id, signature); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.checks {
		if err := check.Health(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "error", err)
			shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
