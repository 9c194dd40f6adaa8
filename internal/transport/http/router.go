// Package httptransport assembles the service router. It owns transport
// concerns only; handlers delegate to the engine.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nintynick/transitive-trust-sub001/internal/platform/metrics"
	"github.com/nintynick/transitive-trust-sub001/internal/platform/middleware"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/handler"
)

// Deps gathers the router's dependencies. Ready reports backend health; nil
// means the service has no external backends to probe.
type Deps struct {
	Trust    *handler.Handler
	Resolver middleware.CallerResolver
	Metrics  *metrics.Metrics
	Ready    func(ctx context.Context) error
}

// NewRouter wires middleware and endpoints. Health and metrics stay outside
// the auth boundary; everything under /trust requires a resolved caller.
func NewRouter(deps Deps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(req.Context()); err != nil {
				logger.WarnContext(req.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireCaller(deps.Resolver, logger))
		deps.Trust.Register(authed)
	})

	return r
}
