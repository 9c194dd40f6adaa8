// Package aggregate turns candidate paths into scalar confidences and
// combines them into one score.
//
// A path's raw confidence is the product of its (inheritance-discounted)
// edge weights times a depth decay d^k, k being the hop count: longer chains
// compound uncertainty. Independent paths combine with diminishing returns:
//
//	combined = 1 − Π(1 − pᵢ·rᵢ)
//
// where rᵢ is the redundancy discount the sybil scorer assigns to paths that
// reuse principals already counted by higher-ranked paths. The combination is
// monotonically non-decreasing in added paths, and a path through an already
// counted intermediary adds strictly less than a fresh independent one.
package aggregate

import (
	"sort"

	"github.com/nintynick/transitive-trust-sub001/internal/trust/enumerate"
)

// ScoredPath carries a path through ranking, discounting, and combination.
type ScoredPath struct {
	Path enumerate.Path

	// Raw is the path confidence before redundancy discounting.
	Raw float64

	// Discount is the redundancy factor rᵢ in (0,1], filled by the sybil
	// scorer; 1 until then.
	Discount float64
}

// PathConfidence computes the raw confidence of a single path.
func PathConfidence(p enumerate.Path, decayFactor float64) float64 {
	confidence := 1.0
	for _, step := range p.Steps {
		confidence *= step.EffectiveWeight
	}
	if p.Terminal != nil {
		confidence *= p.Terminal.EffectiveWeight
	}
	for i := 0; i < p.HopCount(); i++ {
		confidence *= decayFactor
	}
	return confidence
}

// Rank scores every path and orders them by descending raw confidence. Ties
// break on the path key so ranking is deterministic across runs.
func Rank(paths []enumerate.Path, decayFactor float64) []ScoredPath {
	scored := make([]ScoredPath, 0, len(paths))
	for _, p := range paths {
		scored = append(scored, ScoredPath{
			Path:     p,
			Raw:      PathConfidence(p, decayFactor),
			Discount: 1,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Raw != scored[j].Raw {
			return scored[i].Raw > scored[j].Raw
		}
		return scored[i].Path.Key() < scored[j].Path.Key()
	})
	return scored
}

// Combine folds discounted path confidences into one aggregate score.
func Combine(scored []ScoredPath) float64 {
	remaining := 1.0
	for _, sp := range scored {
		contribution := sp.Raw * sp.Discount
		if contribution < 0 {
			contribution = 0
		}
		if contribution > 1 {
			contribution = 1
		}
		remaining *= 1 - contribution
	}
	return 1 - remaining
}
