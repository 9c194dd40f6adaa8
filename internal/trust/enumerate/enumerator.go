// Package enumerate walks the trust graph from a source principal toward a
// target, producing candidate paths built only from signature-valid, live
// records.
//
// The principal graph is cyclic by design (mutual and self trust are domain
// facts, not defects), so cycle avoidance is per path: a branch never
// revisits a principal already on its own path, but the same principal may
// appear on any number of distinct paths.
package enumerate

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/hierarchy"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/metrics"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/ports"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/signature"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
	"github.com/nintynick/transitive-trust-sub001/pkg/platform/sentinel"
	"github.com/nintynick/transitive-trust-sub001/pkg/requestcontext"
)

// Config bounds a single enumeration.
type Config struct {
	// MaxDepth is the maximum number of trust edges on a path. The terminal
	// endorsement does not count against it.
	MaxDepth int

	// MaxFanout caps concurrently exploring branches. Adversarially dense
	// graphs otherwise turn one query into unbounded goroutines.
	MaxFanout int

	// MaxVisited is the work budget: total node expansions across all
	// branches before the search reports itself truncated.
	MaxVisited int

	// InheritanceDiscount is the per-hop multiplier applied to an edge whose
	// domain relates to the query domain through the domain forest rather
	// than matching it exactly.
	InheritanceDiscount float64
}

// Outcome is the result of one enumeration: the candidate path set, whether
// any limit cut the search short, and exclusion counts for observability.
type Outcome struct {
	Paths     []Path
	Truncated bool
	Stats     Stats
}

// Stats counts what the search saw and skipped. Exclusions are silent with
// respect to the path set but never with respect to these counters.
type Stats struct {
	Visited          int
	InvalidSignature int
	UnknownSigner    int
	Expired          int
	OutOfScope       int
}

// Enumerator performs bounded depth-first searches over the graph port.
type Enumerator struct {
	store   ports.GraphStore
	forest  *hierarchy.Forest
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enumerator) { e.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enumerator) { e.metrics = m }
}

// New creates an Enumerator over the given graph port and domain forest.
func New(store ports.GraphStore, forest *hierarchy.Forest, opts ...Option) (*Enumerator, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "graph store is required")
	}
	if forest == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "domain forest is required")
	}
	e := &Enumerator{store: store, forest: forest}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// search carries the shared state of one enumeration.
type search struct {
	enum   *Enumerator
	cfg    Config
	query  domain.Query
	group  *errgroup.Group
	ctx    context.Context

	// endorsers maps principal -> best verified endorsement of the subject
	// target. Empty for principal targets. Built once before the walk.
	endorsers map[id.PrincipalID]Terminal

	visited   atomic.Int64
	truncated atomic.Bool

	mu    sync.Mutex
	paths []Path
	stats Stats

	keys keyCache
}

// keyCache memoizes PublicKeyOf per principal for the duration of a query.
// absent is recorded too, so an unknown signer costs one port round trip.
type keyCache struct {
	mu    sync.Mutex
	store ports.GraphStore
	keys  map[id.PrincipalID][]byte
	known map[id.PrincipalID]bool
}

func (c *keyCache) get(ctx context.Context, principalID id.PrincipalID) ([]byte, bool, error) {
	c.mu.Lock()
	if known, ok := c.known[principalID]; ok {
		key := c.keys[principalID]
		c.mu.Unlock()
		return key, known, nil
	}
	c.mu.Unlock()

	key, err := c.store.PublicKeyOf(ctx, principalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			c.mu.Lock()
			c.known[principalID] = false
			c.mu.Unlock()
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeUnavailable, "resolve public key")
	}

	c.mu.Lock()
	c.known[principalID] = true
	c.keys[principalID] = key
	c.mu.Unlock()
	return key, true, nil
}

// Run enumerates candidate paths for the query. Hitting a depth, work budget,
// or deadline limit is not an error: the outcome is marked truncated and
// carries whatever paths were found. Port failures are errors.
func (e *Enumerator) Run(ctx context.Context, query domain.Query, cfg Config) (*Outcome, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.MaxFanout)

	s := &search{
		enum:  e,
		cfg:   cfg,
		query: query,
		group: group,
		ctx:   groupCtx,
		keys:  keyCache{store: e.store, keys: make(map[id.PrincipalID][]byte), known: make(map[id.PrincipalID]bool)},
	}

	if query.Target.Kind == domain.TargetSubject {
		if err := s.loadEndorsers(groupCtx); err != nil {
			return nil, err
		}
	}

	rootVisited := map[id.PrincipalID]struct{}{query.Source: {}}
	if err := s.expand(groupCtx, query.Source, nil, rootVisited); err != nil {
		// Let in-flight branches settle before reporting.
		_ = group.Wait()
		return nil, err
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if s.truncated.Load() {
		e.metrics.IncTruncated()
		if e.logger != nil {
			e.logger.DebugContext(ctx, "enumeration truncated",
				"visited", s.visited.Load(),
				"source", query.Source,
				"domain", query.Domain,
			)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Visited = int(s.visited.Load())

	// Deterministic order regardless of goroutine scheduling.
	sort.Slice(s.paths, func(i, j int) bool { return s.paths[i].Key() < s.paths[j].Key() })

	return &Outcome{
		Paths:     s.paths,
		Truncated: s.truncated.Load() || ctx.Err() != nil,
		Stats:     s.stats,
	}, nil
}

// nowFrom resolves the query-scoped clock; tests pin it via requestcontext.
func nowFrom(ctx context.Context) time.Time {
	return requestcontext.Now(ctx)
}

// loadEndorsers fetches and verifies the subject's incoming endorsements once,
// so every branch can terminate with an O(1) lookup.
func (s *search) loadEndorsers(ctx context.Context) error {
	endorsements, err := s.enum.store.IncomingEndorsements(ctx, s.query.Target.Subject, s.query.Domain)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "fetch endorsements")
	}

	s.endorsers = make(map[id.PrincipalID]Terminal, len(endorsements))
	for _, end := range endorsements {
		effective, ok := s.admitEndorsement(ctx, end)
		if !ok {
			continue
		}
		if best, exists := s.endorsers[end.From]; !exists || effective > best.EffectiveWeight {
			s.endorsers[end.From] = Terminal{Endorsement: end, EffectiveWeight: effective}
		}
	}
	return nil
}

// admitEndorsement gates one endorsement through scope, liveness, bounds, and
// signature checks, returning its inheritance-discounted weight.
func (s *search) admitEndorsement(ctx context.Context, end domain.Endorsement) (float64, bool) {
	hops, inScope := s.enum.forest.InScope(end.Domain, s.query.Domain)
	if !inScope {
		s.countExclusion(func(st *Stats) { st.OutOfScope++ }, "")
		return 0, false
	}
	if !end.LiveAt(nowFrom(ctx)) {
		s.countExclusion(func(st *Stats) { st.Expired++ }, metrics.ReasonExpired)
		return 0, false
	}
	if !end.WeightInBounds() {
		s.countExclusion(nil, metrics.ReasonWeightOutOfRange)
		return 0, false
	}

	key, known, err := s.keys.get(ctx, end.From)
	if err != nil || !known {
		if !known {
			s.countExclusion(func(st *Stats) { st.UnknownSigner++ }, metrics.ReasonUnknownSigner)
		}
		return 0, false
	}
	if !signature.VerifyEndorsement(end, key) {
		s.countExclusion(func(st *Stats) { st.InvalidSignature++ }, metrics.ReasonInvalidSignature)
		return 0, false
	}

	return end.Weight * math.Pow(s.cfg.InheritanceDiscount, float64(hops)), true
}

// expand explores outward from node. path is owned by this branch; child
// branches get copies so sibling branches never share visited state.
func (s *search) expand(ctx context.Context, node id.PrincipalID, path []Step, visited map[id.PrincipalID]struct{}) error {
	if ctx.Err() != nil {
		s.truncated.Store(true)
		return nil
	}

	// Terminal checks before expansion: a branch stops at the target.
	if s.query.Target.Kind == domain.TargetSubject {
		if term, ok := s.endorsers[node]; ok {
			s.recordPath(path, &term)
			return nil
		}
	} else if node == s.query.Source && len(path) > 0 {
		// Cycled back to the source; per-path visited set already blocks
		// this, kept as a defensive invariant.
		return nil
	} else if node == s.query.Target.Principal && len(path) > 0 {
		s.recordPath(path, nil)
		return nil
	}

	if len(path) >= s.cfg.MaxDepth {
		s.truncated.Store(true)
		return nil
	}
	if s.visited.Add(1) > int64(s.cfg.MaxVisited) {
		s.truncated.Store(true)
		return nil
	}

	edges, err := s.enum.store.OutgoingTrustEdges(ctx, node, s.query.Domain)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "fetch outgoing edges")
	}

	for _, edge := range edges {
		if _, onPath := visited[edge.To]; onPath {
			continue
		}
		effective, ok := s.admitEdge(ctx, edge)
		if !ok {
			continue
		}

		childPath := append(append(make([]Step, 0, len(path)+1), path...), Step{Edge: edge, EffectiveWeight: effective})
		childVisited := make(map[id.PrincipalID]struct{}, len(visited)+1)
		for p := range visited {
			childVisited[p] = struct{}{}
		}
		childVisited[edge.To] = struct{}{}

		next := edge.To
		// Spawn a branch goroutine when the fan-out budget allows, otherwise
		// recurse inline. Inline fallback keeps the walk deadlock-free.
		if !s.group.TryGo(func() error {
			return s.expand(s.ctx, next, childPath, childVisited)
		}) {
			if err := s.expand(ctx, next, childPath, childVisited); err != nil {
				return err
			}
		}
	}
	return nil
}

// admitEdge gates one trust edge, mirroring admitEndorsement.
func (s *search) admitEdge(ctx context.Context, edge domain.TrustEdge) (float64, bool) {
	hops, inScope := s.enum.forest.InScope(edge.Domain, s.query.Domain)
	if !inScope {
		s.countExclusion(func(st *Stats) { st.OutOfScope++ }, "")
		return 0, false
	}
	if !edge.LiveAt(nowFrom(ctx)) {
		s.countExclusion(func(st *Stats) { st.Expired++ }, metrics.ReasonExpired)
		return 0, false
	}
	if !edge.WeightInBounds() {
		s.countExclusion(nil, metrics.ReasonWeightOutOfRange)
		return 0, false
	}

	key, known, err := s.keys.get(ctx, edge.From)
	if err != nil || !known {
		if !known {
			s.countExclusion(func(st *Stats) { st.UnknownSigner++ }, metrics.ReasonUnknownSigner)
		}
		return 0, false
	}
	if !signature.VerifyTrustEdge(edge, key) {
		s.countExclusion(func(st *Stats) { st.InvalidSignature++ }, metrics.ReasonInvalidSignature)
		return 0, false
	}

	return edge.Weight * math.Pow(s.cfg.InheritanceDiscount, float64(hops)), true
}

func (s *search) recordPath(steps []Step, terminal *Terminal) {
	p := Path{
		Source:   s.query.Source,
		Steps:    append([]Step(nil), steps...),
		Terminal: terminal,
	}
	if p.HopCount() == 0 {
		// A principal is not a path to itself.
		return
	}
	s.mu.Lock()
	s.paths = append(s.paths, p)
	s.mu.Unlock()
}

func (s *search) countExclusion(bump func(*Stats), reason string) {
	if bump != nil {
		s.mu.Lock()
		bump(&s.stats)
		s.mu.Unlock()
	}
	if reason != "" {
		s.enum.metrics.IncExcluded(reason)
	}
}
