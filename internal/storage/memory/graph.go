// Package memory provides the in-memory graph store. It is the default
// backing for tests and single-node deployments, and doubles as the change
// signal source: every mutation notifies subscribers synchronously.
//
// Mutations take the write lock and reads take the read lock, so a query in
// flight sees a consistent graph for each read; the engine's repeatable-read
// expectation holds because records are immutable once added and mutations
// are append-only (supersession by later IssuedAt, never in-place edits).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/hierarchy"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/ports"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
	"github.com/nintynick/transitive-trust-sub001/pkg/platform/sentinel"
)

// GraphStore implements ports.GraphStore and ports.ChangeNotifier.
type GraphStore struct {
	forest *hierarchy.Forest

	mu           sync.RWMutex
	principals   map[id.PrincipalID]domain.Principal
	subjects     map[id.SubjectID]domain.Subject
	edgesByFrom  map[id.PrincipalID][]domain.TrustEdge
	edgesByTo    map[id.PrincipalID][]domain.TrustEdge
	endorsements map[id.SubjectID][]domain.Endorsement

	listenerMu sync.Mutex
	listeners  map[int]func(ports.GraphChange)
	nextID     int
}

// NewGraphStore creates an empty store scoped by the given domain forest.
func NewGraphStore(forest *hierarchy.Forest) *GraphStore {
	return &GraphStore{
		forest:       forest,
		principals:   make(map[id.PrincipalID]domain.Principal),
		subjects:     make(map[id.SubjectID]domain.Subject),
		edgesByFrom:  make(map[id.PrincipalID][]domain.TrustEdge),
		edgesByTo:    make(map[id.PrincipalID][]domain.TrustEdge),
		endorsements: make(map[id.SubjectID][]domain.Endorsement),
		listeners:    make(map[int]func(ports.GraphChange)),
	}
}

// PutPrincipal registers or replaces a principal record.
func (s *GraphStore) PutPrincipal(p domain.Principal) {
	s.mu.Lock()
	s.principals[p.ID] = p
	s.mu.Unlock()
}

// PutSubject registers or replaces a subject record.
func (s *GraphStore) PutSubject(sub domain.Subject) {
	s.mu.Lock()
	s.subjects[sub.ID] = sub
	s.mu.Unlock()
}

// AddTrustEdge appends a signed trust edge and signals the change.
func (s *GraphStore) AddTrustEdge(edge domain.TrustEdge) {
	s.mu.Lock()
	s.edgesByFrom[edge.From] = append(s.edgesByFrom[edge.From], edge)
	s.edgesByTo[edge.To] = append(s.edgesByTo[edge.To], edge)
	s.mu.Unlock()

	s.notify(ports.GraphChange{
		Kind:   ports.ChangeEdgeUpserted,
		Domain: edge.Domain,
		From:   edge.From,
		To:     edge.To,
		At:     time.Now(),
	})
}

// AddEndorsement appends a signed endorsement and signals the change.
func (s *GraphStore) AddEndorsement(end domain.Endorsement) {
	s.mu.Lock()
	s.endorsements[end.Subject] = append(s.endorsements[end.Subject], end)
	s.mu.Unlock()

	s.notify(ports.GraphChange{
		Kind:   ports.ChangeEndorsementUpserted,
		Domain: end.Domain,
		From:   end.From,
		At:     time.Now(),
	})
}

// OutgoingTrustEdges returns the principal's edges in the query domain's
// scope. Liveness and signature gating belong to the engine; the store only
// scopes by domain.
func (s *GraphStore) OutgoingTrustEdges(_ context.Context, principalID id.PrincipalID, queryDomain id.DomainID) ([]domain.TrustEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TrustEdge
	for _, edge := range s.edgesByFrom[principalID] {
		if _, ok := s.forest.InScope(edge.Domain, queryDomain); ok {
			out = append(out, edge)
		}
	}
	return out, nil
}

// IncomingEndorsements returns the subject's endorsements in the query
// domain's scope.
func (s *GraphStore) IncomingEndorsements(_ context.Context, subjectID id.SubjectID, queryDomain id.DomainID) ([]domain.Endorsement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Endorsement
	for _, end := range s.endorsements[subjectID] {
		if _, ok := s.forest.InScope(end.Domain, queryDomain); ok {
			out = append(out, end)
		}
	}
	return out, nil
}

// PublicKeyOf returns the principal's registered key.
func (s *GraphStore) PublicKeyOf(_ context.Context, principalID id.PrincipalID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.principals[principalID]
	if !ok || len(p.PublicKey) == 0 {
		return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "no registered public key")
	}
	return p.PublicKey, nil
}

// StatsOf derives the principal's graph-position features on demand.
func (s *GraphStore) StatsOf(_ context.Context, principalID id.PrincipalID, queryDomain id.DomainID) (ports.PrincipalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := ports.PrincipalStats{}
	upstream := make(map[id.PrincipalID]struct{})
	for _, edge := range s.edgesByTo[principalID] {
		if _, ok := s.forest.InScope(edge.Domain, queryDomain); !ok {
			continue
		}
		stats.InDegree++
		upstream[edge.From] = struct{}{}
	}
	stats.DistinctUpstream = len(upstream)

	if p, ok := s.principals[principalID]; ok {
		stats.CreatedAt = p.CreatedAt
	}
	return stats, nil
}

// Subscribe registers a change listener; the returned function detaches it.
func (s *GraphStore) Subscribe(fn func(ports.GraphChange)) func() {
	s.listenerMu.Lock()
	idx := s.nextID
	s.nextID++
	s.listeners[idx] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, idx)
		s.listenerMu.Unlock()
	}
}

func (s *GraphStore) notify(change ports.GraphChange) {
	s.listenerMu.Lock()
	fns := make([]func(ports.GraphChange), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
