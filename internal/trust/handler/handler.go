// Package handler wires the trust query endpoint to the engine.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
	"github.com/nintynick/transitive-trust-sub001/pkg/platform/httputil"
	"github.com/nintynick/transitive-trust-sub001/pkg/requestcontext"
)

// Service defines the interface for trust query evaluation.
type Service interface {
	Evaluate(ctx context.Context, query domain.Query) (domain.Result, error)
}

// Handler serves trust query requests.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a trust handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts trust endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/trust/query", h.HandleQuery)
}

// HandleQuery handles POST /trust/query requests.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller := requestcontext.Caller(ctx)
	if caller == (id.PrincipalID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[QueryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	query := req.Query(caller)
	result, err := h.service.Evaluate(ctx, query)
	if err != nil {
		h.logger.ErrorContext(ctx, "trust query failed",
			"request_id", requestID,
			"source", query.Source,
			"target", query.Target.Key(),
			"domain", query.Domain,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "trust query evaluated",
		"request_id", requestID,
		"source", query.Source,
		"target", query.Target.Key(),
		"domain", query.Domain,
		"score", result.Score,
		"confidence", result.Confidence,
		"truncated", result.Truncated,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}
