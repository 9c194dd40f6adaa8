package audit

import (
	"time"

	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

// Action names the audited operation.
type Action string

const (
	ActionQueryComputed      Action = "trust_query_computed"
	ActionQueryTruncated     Action = "trust_query_truncated"
	ActionGraphChangeApplied Action = "graph_change_applied"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    Action
	RequestID string

	// Query events
	Source     id.PrincipalID
	Target     string
	Domain     id.DomainID
	Score      float64
	Confidence float64
	PathCount  int
	CacheHit   bool

	// Free-form context for anything the fixed fields don't cover.
	Detail string
}
