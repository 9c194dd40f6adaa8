package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the trust engine.
type Metrics struct {
	// Edges excluded from enumeration, by reason
	ExcludedEdges *prometheus.CounterVec

	// Queries that hit a depth or work budget limit
	TruncatedQueries prometheus.Counter

	// Result cache outcomes
	CacheOutcome *prometheus.CounterVec

	// Candidate paths found per query
	PathsPerQuery prometheus.Histogram

	// Full query evaluation latency
	EvaluateLatency prometheus.Histogram
}

// Exclusion reasons reported by the enumerator.
const (
	ReasonInvalidSignature = "invalid_signature"
	ReasonUnknownSigner    = "unknown_signer"
	ReasonExpired          = "expired"
	ReasonWeightOutOfRange = "weight_out_of_range"
)

// New creates a Metrics instance with all trust engine metrics registered.
func New() *Metrics {
	return &Metrics{
		ExcludedEdges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgraph_excluded_edges_total",
			Help: "Edges and endorsements excluded from trust computation by reason",
		}, []string{"reason"}),

		TruncatedQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustgraph_truncated_queries_total",
			Help: "Queries cut short by depth, work budget, or deadline",
		}),

		CacheOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgraph_result_cache_total",
			Help: "Result cache lookups by outcome",
		}, []string{"outcome"}), // outcome: "hit", "miss"

		PathsPerQuery: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgraph_paths_per_query",
			Help:    "Candidate paths found per trust query",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgraph_evaluate_duration_seconds",
			Help:    "Duration of full trust query evaluation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncExcluded records an edge exclusion. Nil-safe so call sites can skip the
// nil check.
func (m *Metrics) IncExcluded(reason string) {
	if m != nil {
		m.ExcludedEdges.WithLabelValues(reason).Inc()
	}
}

// IncTruncated records a truncated query.
func (m *Metrics) IncTruncated() {
	if m != nil {
		m.TruncatedQueries.Inc()
	}
}

// IncCache records a cache lookup outcome.
func (m *Metrics) IncCache(outcome string) {
	if m != nil {
		m.CacheOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObservePaths records the number of candidate paths for a query.
func (m *Metrics) ObservePaths(n int) {
	if m != nil {
		m.PathsPerQuery.Observe(float64(n))
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
