package engine

import (
	"time"

	"github.com/nintynick/transitive-trust-sub001/internal/trust/sybil"
)

// Config gathers the engine's policy constants. The decay and discount values
// are deployment policy; defaults and rationale are recorded in DESIGN.md, and
// deployments tune them through platform config.
type Config struct {
	// DecayFactor is the per-hop confidence multiplier d in (0,1).
	DecayFactor float64

	// InheritanceDiscount is the per-hop multiplier for edges scoped to a
	// domain related to the query domain through the forest.
	InheritanceDiscount float64

	// DefaultMaxDepth applies when a query does not set MaxDepth; HardMaxDepth
	// caps what a query may request.
	DefaultMaxDepth int
	HardMaxDepth    int

	// MaxFanout bounds concurrent enumeration branches per query.
	MaxFanout int

	// MaxVisited is the per-query work budget in node expansions.
	MaxVisited int

	// QueryTimeout bounds one evaluation; on expiry the engine returns a
	// partial, truncation-flagged result.
	QueryTimeout time.Duration

	// CacheTTL bounds cached result lifetime independent of invalidation.
	CacheTTL time.Duration

	Sybil sybil.Config
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		DecayFactor:         0.9,
		InheritanceDiscount: 0.8,
		DefaultMaxDepth:     4,
		HardMaxDepth:        8,
		MaxFanout:           8,
		MaxVisited:          10_000,
		QueryTimeout:        5 * time.Second,
		CacheTTL:            5 * time.Minute,
		Sybil: sybil.Config{
			SharedPenalty:        0.5,
			OverlapPenalty:       0.6,
			ConcentrationPenalty: 0.3,
			YouthPenalty:         0.2,
			MinAccountAge:        30,
			TruncationPenalty:    0.5,
		},
	}
}
