// Package sybil discounts structurally redundant contributions and derives
// the structural confidence reported alongside a score.
//
// Two outputs, deliberately separate: per-path redundancy discounts feed the
// aggregator and lower the score when paths share bottleneck principals;
// confidence describes how trustworthy the derivation itself is (diverse,
// weakly overlapping contributors vs. a small clique) and never raises the
// score.
package sybil

import (
	"context"
	"log/slog"

	"github.com/nintynick/transitive-trust-sub001/internal/trust/aggregate"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/enumerate"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/ports"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	"github.com/nintynick/transitive-trust-sub001/pkg/requestcontext"
)

// Config holds the policy constants. Defaults are in engine.DefaultConfig;
// rationale in DESIGN.md.
type Config struct {
	// SharedPenalty scales the per-principal redundancy discount. A repeated
	// intermediary q costs a factor (1 − SharedPenalty·dominance(q)), where
	// dominance is the fraction of the path set routing through q.
	SharedPenalty float64

	// OverlapPenalty scales how much mean pairwise path overlap reduces
	// confidence.
	OverlapPenalty float64

	// ConcentrationPenalty scales how much a single dominant contributor
	// reduces confidence.
	ConcentrationPenalty float64

	// YouthPenalty scales how much young contributor accounts reduce
	// confidence; MinAccountAge defines "young".
	YouthPenalty  float64
	MinAccountAge int // days

	// TruncationPenalty multiplies confidence when the search was cut short:
	// "unknown" must read as less certain than a complete answer.
	TruncationPenalty float64
}

// Scorer computes redundancy discounts and structural confidence.
type Scorer struct {
	cfg    Config
	store  ports.GraphStore
	logger *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) { s.logger = logger }
}

// New creates a Scorer. The graph store is optional; without it the scorer
// skips account-age adjustments and scores on topology alone.
func New(cfg Config, store ports.GraphStore, opts ...Option) *Scorer {
	s := &Scorer{cfg: cfg, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Discounts fills the Discount field of each ranked path in place. Paths are
// assumed sorted by descending raw confidence: higher-ranked paths claim
// their principals first, and every later path pays for reusing them.
func (s *Scorer) Discounts(scored []aggregate.ScoredPath) {
	if len(scored) == 0 {
		return
	}

	// Dominance: what fraction of the path set each principal appears in.
	appearances := make(map[id.PrincipalID]int)
	for _, sp := range scored {
		for _, p := range dedupe(contributors(sp.Path)) {
			appearances[p]++
		}
	}
	total := float64(len(scored))

	counted := make(map[id.PrincipalID]struct{})
	for i := range scored {
		discount := 1.0
		for _, p := range dedupe(contributors(scored[i].Path)) {
			if _, seen := counted[p]; seen {
				dominance := float64(appearances[p]) / total
				discount *= 1 - s.cfg.SharedPenalty*dominance
			}
		}
		scored[i].Discount = discount
		for _, p := range contributors(scored[i].Path) {
			counted[p] = struct{}{}
		}
	}
}

// Confidence derives the structural confidence for a discounted path set.
//
// No paths is a definite answer, so confidence is 1. Otherwise confidence
// starts at 1 and drops with pairwise path overlap, with concentration on a
// single contributor, and with young contributor accounts; truncation applies
// a final penalty. Confidence is advisory: stats lookups that fail degrade to
// topology-only scoring rather than failing the query.
func (s *Scorer) Confidence(ctx context.Context, scored []aggregate.ScoredPath, queryDomain id.DomainID, truncated bool) float64 {
	if len(scored) == 0 {
		if truncated {
			return clamp01(s.cfg.TruncationPenalty)
		}
		return 1
	}

	confidence := 1.0
	confidence *= 1 - s.cfg.OverlapPenalty*meanPairwiseOverlap(scored)
	confidence *= 1 - s.cfg.ConcentrationPenalty*maxDominance(scored)
	confidence *= 1 - s.cfg.YouthPenalty*s.youngFraction(ctx, scored, queryDomain)

	if truncated {
		confidence *= s.cfg.TruncationPenalty
	}
	return clamp01(confidence)
}

// meanPairwiseOverlap averages the intermediary overlap across all path
// pairs: |Iᵢ ∩ Iⱼ| / min(|Iᵢ|, |Iⱼ|). Direct edges (no intermediaries other
// than the terminal principal) contribute zero overlap.
func meanPairwiseOverlap(scored []aggregate.ScoredPath) float64 {
	if len(scored) < 2 {
		return 0
	}

	sets := make([]map[id.PrincipalID]struct{}, len(scored))
	for i, sp := range scored {
		set := make(map[id.PrincipalID]struct{})
		for _, p := range contributors(sp.Path) {
			set[p] = struct{}{}
		}
		sets[i] = set
	}

	var sum float64
	var pairs int
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			pairs++
			smaller := len(sets[i])
			if len(sets[j]) < smaller {
				smaller = len(sets[j])
			}
			if smaller == 0 {
				continue
			}
			shared := 0
			for p := range sets[i] {
				if _, ok := sets[j][p]; ok {
					shared++
				}
			}
			sum += float64(shared) / float64(smaller)
		}
	}
	return sum / float64(pairs)
}

// maxDominance is the largest fraction of the path set any single
// intermediary appears in, beyond its first path. One path cannot dominate.
func maxDominance(scored []aggregate.ScoredPath) float64 {
	if len(scored) < 2 {
		return 0
	}
	appearances := make(map[id.PrincipalID]int)
	for _, sp := range scored {
		for _, p := range dedupe(contributors(sp.Path)) {
			appearances[p]++
		}
	}
	max := 0
	for _, n := range appearances {
		if n > max {
			max = n
		}
	}
	if max <= 1 {
		return 0
	}
	return float64(max-1) / float64(len(scored)-1)
}

// youngFraction reports the fraction of distinct contributors younger than
// MinAccountAge. Stats failures are logged and treated as "not young".
func (s *Scorer) youngFraction(ctx context.Context, scored []aggregate.ScoredPath, queryDomain id.DomainID) float64 {
	if s.store == nil || s.cfg.YouthPenalty == 0 {
		return 0
	}

	contributorSet := make(map[id.PrincipalID]struct{})
	for _, sp := range scored {
		for _, p := range contributors(sp.Path) {
			contributorSet[p] = struct{}{}
		}
	}
	if len(contributorSet) == 0 {
		return 0
	}

	now := requestcontext.Now(ctx)
	young := 0
	for p := range contributorSet {
		stats, err := s.store.StatsOf(ctx, p, queryDomain)
		if err != nil {
			if s.logger != nil {
				s.logger.DebugContext(ctx, "principal stats unavailable", "principal", p, "error", err)
			}
			continue
		}
		if stats.CreatedAt.IsZero() {
			continue
		}
		ageDays := int(now.Sub(stats.CreatedAt).Hours() / 24)
		if ageDays < s.cfg.MinAccountAge {
			young++
		}
	}
	return float64(young) / float64(len(contributorSet))
}

// contributors returns the principals a path adds beyond the source. For a
// principal target the final hop is the target itself, shared by every path
// by definition, so it is excluded; for a subject target the final hop is the
// endorser, a genuine contributor, so it stays.
func contributors(p enumerate.Path) []id.PrincipalID {
	inter := p.Intermediaries()
	if p.Terminal == nil && len(inter) > 0 {
		inter = inter[:len(inter)-1]
	}
	return inter
}

func dedupe(principals []id.PrincipalID) []id.PrincipalID {
	seen := make(map[id.PrincipalID]struct{}, len(principals))
	out := principals[:0:0]
	for _, p := range principals {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
