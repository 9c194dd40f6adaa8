// Package ports defines the interfaces the trust engine consumes. Interfaces
// live here when more than one package needs them, so implementations in the
// storage layer and fakes in tests share one contract.
package ports

import (
	"context"
	"log/slog"
	"time"

	"github.com/nintynick/transitive-trust-sub001/internal/audit"
	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	request "github.com/nintynick/transitive-trust-sub001/pkg/requestcontext"
)

// GraphStore is the read-only port onto the trust graph. The engine never
// mutates the store; edges and endorsements arrive as already-persisted,
// immutable facts.
//
// Implementations must provide repeatable reads for the duration of a single
// query context (a read transaction or an immutable snapshot), since an
// inconsistent mid-query view could admit half-verified cyclic artifacts.
type GraphStore interface {
	// OutgoingTrustEdges returns the live trust edges from a principal whose
	// domain is queryDomain or one of its ancestors in the domain forest.
	// Domain scoping discounts are applied by the engine, not here.
	OutgoingTrustEdges(ctx context.Context, principalID id.PrincipalID, queryDomain id.DomainID) ([]domain.TrustEdge, error)

	// IncomingEndorsements returns the live endorsements of a subject under
	// the same domain scoping as OutgoingTrustEdges.
	IncomingEndorsements(ctx context.Context, subjectID id.SubjectID, queryDomain id.DomainID) ([]domain.Endorsement, error)

	// PublicKeyOf resolves a principal's registered public key for signature
	// binding. Returns sentinel.ErrNotFound (wrapped or not) when the
	// principal has no registered key; such a signer is terminally unknown.
	PublicKeyOf(ctx context.Context, principalID id.PrincipalID) ([]byte, error)

	// StatsOf returns lazily derived per-principal graph-position features
	// for sybil scoring. Never persisted authoritatively by the engine.
	StatsOf(ctx context.Context, principalID id.PrincipalID, queryDomain id.DomainID) (PrincipalStats, error)
}

// PrincipalStats summarizes a principal's structural position in the graph.
type PrincipalStats struct {
	InDegree         int
	DistinctUpstream int
	CreatedAt        time.Time
}

// ChangeKind classifies a graph mutation signaled by the storage layer.
type ChangeKind string

const (
	ChangeEdgeUpserted        ChangeKind = "edge_upserted"
	ChangeEndorsementUpserted ChangeKind = "endorsement_upserted"
	ChangeKeyRotated          ChangeKind = "key_rotated"
)

// GraphChange is the change-notification signal used for cache invalidation.
// Coarse by design: carrying the touched domain is enough for the cache to
// drop every entry the mutation could affect.
type GraphChange struct {
	Kind   ChangeKind
	Domain id.DomainID
	From   id.PrincipalID
	To     id.PrincipalID
	At     time.Time
}

// ChangeNotifier lets the engine subscribe to graph mutations. The returned
// cancel function detaches the listener; implementations must tolerate
// cancellation racing a delivery.
type ChangeNotifier interface {
	Subscribe(fn func(GraphChange)) (cancel func())
}

// AuditPublisher emits audit events for trust-relevant operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs an audit event to both the structured logger and the audit
// publisher when available. Shared by engine and transport.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event, attrs ...any) {
	if requestID := request.RequestID(ctx); requestID != "" {
		event.RequestID = requestID
	}
	if logger != nil {
		args := append(attrs,
			"event", string(event.Action),
			"log_type", "audit",
			"request_id", event.RequestID,
		)
		logger.InfoContext(ctx, string(event.Action), args...)
	}
	if publisher != nil {
		// Audit persistence failures must not fail the query path.
		_ = publisher.Emit(ctx, event)
	}
}
