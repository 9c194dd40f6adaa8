// Package engine is the query entry point: it orchestrates enumeration,
// decay/aggregation, and sybil scoring for a trust query, fronted by a
// result cache with change-driven invalidation.
package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/nintynick/transitive-trust-sub001/internal/audit"
	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/aggregate"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/cache"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/enumerate"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/hierarchy"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/metrics"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/ports"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/sybil"
	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
	"github.com/nintynick/transitive-trust-sub001/pkg/requestcontext"
)

// Service executes trust queries.
type Service struct {
	cfg        Config
	store      ports.GraphStore
	forest     *hierarchy.Forest
	enumerator *enumerate.Enumerator
	scorer     *sybil.Scorer
	cache      cache.ResultCache
	metrics    *metrics.Metrics
	logger     *slog.Logger
	publisher  ports.AuditPublisher
	tracer     trace.Tracer
	flight     singleflight.Group
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a structured logger, propagated to the enumerator and scorer.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector, propagated to the enumerator.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher sets the audit sink for computed queries.
func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// New wires the engine. The graph store, domain forest, and result cache are
// required; everything else is optional.
func New(store ports.GraphStore, forest *hierarchy.Forest, resultCache cache.ResultCache, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "graph store is required")
	}
	if forest == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "domain forest is required")
	}
	if resultCache == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "result cache is required")
	}
	if cfg.DecayFactor <= 0 || cfg.DecayFactor >= 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "decay factor must be in (0,1)")
	}

	s := &Service{
		cfg:    cfg,
		store:  store,
		forest: forest,
		cache:  resultCache,
		tracer: otel.Tracer("trustgraph/engine"),
	}
	for _, opt := range opts {
		opt(s)
	}

	enumerator, err := enumerate.New(store, forest,
		enumerate.WithLogger(s.logger),
		enumerate.WithMetrics(s.metrics),
	)
	if err != nil {
		return nil, err
	}
	s.enumerator = enumerator
	s.scorer = sybil.New(cfg.Sybil, store, sybil.WithLogger(s.logger))

	return s, nil
}

// AttachInvalidation subscribes the result cache to graph change signals.
// A change in one domain invalidates every related domain in the forest,
// since inheritance lets edges count across the parent chain. Returns the
// unsubscribe function.
func (s *Service) AttachInvalidation(notifier ports.ChangeNotifier) func() {
	return notifier.Subscribe(func(change ports.GraphChange) {
		ctx := context.Background()
		for _, domainID := range s.forest.RelatedDomains(change.Domain) {
			s.cache.InvalidateDomain(ctx, domainID)
		}
		ports.LogAudit(ctx, s.logger, s.publisher, audit.Event{
			Action: audit.ActionGraphChangeApplied,
			Domain: change.Domain,
			Detail: string(change.Kind),
		})
	})
}

// Evaluate answers a trust query. Truncation (depth, work budget, deadline)
// yields a partial, low-confidence result, not an error; only port failures
// and invalid queries error.
func (s *Service) Evaluate(ctx context.Context, query domain.Query) (domain.Result, error) {
	query, err := s.normalize(query)
	if err != nil {
		return domain.Result{}, err
	}

	ctx, span := s.tracer.Start(ctx, "trust.Evaluate", trace.WithAttributes(
		attribute.String("trust.source", query.Source.String()),
		attribute.String("trust.target", query.Target.Key()),
		attribute.String("trust.domain", query.Domain.String()),
		attribute.Int("trust.max_depth", query.MaxDepth),
	))
	defer span.End()

	start := time.Now()
	key := cache.KeyFor(query)

	if cached, ok := s.cache.Get(ctx, key); ok {
		s.metrics.IncCache("hit")
		s.audit(ctx, query, cached, true)
		return s.applyMinConfidence(query, cached), nil
	}
	s.metrics.IncCache("miss")

	// Singleflight so concurrent identical queries share one computation.
	// Distinct keys never block on each other.
	computed, err, _ := s.flight.Do(key.String(), func() (any, error) {
		return s.compute(ctx, query)
	})
	if err != nil {
		span.RecordError(err)
		return domain.Result{}, err
	}
	result := computed.(domain.Result)

	// Truncated results are query-shaped accidents (budget, deadline), not
	// facts about the graph; caching them would serve partial answers to
	// callers with room to compute full ones.
	if !result.Truncated {
		s.cache.Set(ctx, key, result)
	}

	s.metrics.ObservePaths(len(result.Explanation))
	s.metrics.ObserveEvaluateLatency(time.Since(start))
	s.audit(ctx, query, result, false)

	return s.applyMinConfidence(query, result), nil
}

func (s *Service) compute(ctx context.Context, query domain.Query) (domain.Result, error) {
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	outcome, err := s.enumerator.Run(ctx, query, enumerate.Config{
		MaxDepth:            query.MaxDepth,
		MaxFanout:           s.cfg.MaxFanout,
		MaxVisited:          s.cfg.MaxVisited,
		InheritanceDiscount: s.cfg.InheritanceDiscount,
	})
	if err != nil {
		return domain.Result{}, err
	}

	scored := aggregate.Rank(outcome.Paths, s.cfg.DecayFactor)
	s.scorer.Discounts(scored)
	score := aggregate.Combine(scored)
	confidence := s.scorer.Confidence(ctx, scored, query.Domain, outcome.Truncated)

	explanation := make([]domain.PathExplanation, 0, len(scored))
	for _, sp := range scored {
		explanation = append(explanation, domain.PathExplanation{
			Principals:      sp.Path.Principals(),
			RawConfidence:   sp.Raw,
			AppliedDiscount: sp.Discount,
		})
	}

	return domain.Result{
		Score:       score,
		Confidence:  confidence,
		Explanation: explanation,
		Truncated:   outcome.Truncated,
		ComputedAt:  requestcontext.Now(ctx),
	}, nil
}

// normalize validates the query and fills depth defaults.
func (s *Service) normalize(query domain.Query) (domain.Query, error) {
	if query.Source.IsNil() {
		return query, dErrors.New(dErrors.CodeBadRequest, "source principal is required")
	}
	if query.Domain.IsNil() {
		return query, dErrors.New(dErrors.CodeBadRequest, "domain is required")
	}
	switch query.Target.Kind {
	case domain.TargetPrincipal:
		if query.Target.Principal.IsNil() {
			return query, dErrors.New(dErrors.CodeBadRequest, "target principal is required")
		}
	case domain.TargetSubject:
		if query.Target.Subject.IsNil() {
			return query, dErrors.New(dErrors.CodeBadRequest, "target subject is required")
		}
	default:
		return query, dErrors.New(dErrors.CodeBadRequest, "target kind must be principal or subject")
	}
	if query.MinConfidence < 0 || query.MinConfidence > 1 {
		return query, dErrors.New(dErrors.CodeBadRequest, "min confidence must be in [0,1]")
	}
	if query.MaxDepth <= 0 {
		query.MaxDepth = s.cfg.DefaultMaxDepth
	}
	if query.MaxDepth > s.cfg.HardMaxDepth {
		query.MaxDepth = s.cfg.HardMaxDepth
	}
	return query, nil
}

// applyMinConfidence zeroes the score of results below the caller's
// confidence threshold. The result is returned, never suppressed: the caller
// sees the confidence and explanation it rejected the score over.
func (s *Service) applyMinConfidence(query domain.Query, result domain.Result) domain.Result {
	if query.MinConfidence > 0 && result.Confidence < query.MinConfidence {
		result.Score = 0
	}
	return result
}

func (s *Service) audit(ctx context.Context, query domain.Query, result domain.Result, cacheHit bool) {
	action := audit.ActionQueryComputed
	if result.Truncated {
		action = audit.ActionQueryTruncated
	}
	ports.LogAudit(ctx, s.logger, s.publisher, audit.Event{
		Action:     action,
		Source:     query.Source,
		Target:     query.Target.Key(),
		Domain:     query.Domain,
		Score:      result.Score,
		Confidence: result.Confidence,
		PathCount:  len(result.Explanation),
		CacheHit:   cacheHit,
	},
		"source", query.Source,
		"target", query.Target.Key(),
		"domain", query.Domain,
		"score", result.Score,
		"confidence", result.Confidence,
		"cache_hit", cacheHit,
	)
}
