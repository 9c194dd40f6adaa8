// Package hierarchy maintains the trust-domain forest: an id-keyed parent
// index giving O(1) lookups independent of traversal order.
//
// The forest invariant (each domain has at most one parent, no cycles in the
// parent chain) is enforced here at ingestion time. The query path assumes it
// holds and never re-checks.
package hierarchy

import (
	"errors"
	"sync"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
)

// ErrCyclicHierarchy is returned when ingesting a domain whose parent chain
// would loop back to itself. Fatal for that record; never seen by queries.
var ErrCyclicHierarchy = errors.New("cyclic domain hierarchy")

// Forest indexes trust domains by ID with parent pointers.
type Forest struct {
	mu      sync.RWMutex
	domains map[id.DomainID]domain.TrustDomain
}

// New returns an empty forest.
func New() *Forest {
	return &Forest{domains: make(map[id.DomainID]domain.TrustDomain)}
}

// Ingest adds or replaces a domain. It rejects records that would introduce a
// cycle in the parent chain, including re-parenting an existing domain onto
// one of its own descendants.
func (f *Forest) Ingest(d domain.TrustDomain) error {
	if d.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "domain id is required")
	}
	if d.Parent == d.ID {
		return dErrors.Wrap(ErrCyclicHierarchy, dErrors.CodeInvalidInput, "domain cannot be its own parent")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Walk the would-be parent chain against the current index. The walk is
	// bounded by the index size, so a pre-existing corruption cannot loop.
	seen := 0
	for cursor := d.Parent; !cursor.IsNil(); {
		if cursor == d.ID {
			return dErrors.Wrap(ErrCyclicHierarchy, dErrors.CodeInvalidInput, "parent chain loops back to domain")
		}
		parent, ok := f.domains[cursor]
		if !ok {
			break
		}
		cursor = parent.Parent
		seen++
		if seen > len(f.domains) {
			return dErrors.Wrap(ErrCyclicHierarchy, dErrors.CodeInvalidInput, "parent chain exceeds forest size")
		}
	}

	f.domains[d.ID] = d
	return nil
}

// Get returns the domain record for an ID.
func (f *Forest) Get(domainID id.DomainID) (domain.TrustDomain, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	d, ok := f.domains[domainID]
	return d, ok
}

// Distance returns the number of parent hops from descendant up to ancestor.
// Zero means the domains are equal. The second return is false when ancestor
// is not on descendant's parent chain.
func (f *Forest) Distance(descendant, ancestor id.DomainID) (int, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	hops := 0
	for cursor := descendant; !cursor.IsNil(); {
		if cursor == ancestor {
			return hops, true
		}
		d, ok := f.domains[cursor]
		if !ok {
			return 0, false
		}
		cursor = d.Parent
		hops++
		if hops > len(f.domains) {
			// Invariant violation: Ingest should have rejected this chain.
			return 0, false
		}
	}
	return 0, false
}

// InScope reports whether edgeDomain counts for a query against queryDomain:
// either the same domain, or edgeDomain reached by walking queryDomain's
// parent chain. Inheritance flows downward only: a broader parent domain's
// edges count for a narrower query, discounted by hops, but a narrower
// descendant's edges never widen into an ancestor query.
func (f *Forest) InScope(edgeDomain, queryDomain id.DomainID) (hops int, ok bool) {
	return f.Distance(queryDomain, edgeDomain)
}

// AncestorsOf returns the domain itself followed by its parent chain, root last.
func (f *Forest) AncestorsOf(domainID id.DomainID) []id.DomainID {
	f.mu.RLock()
	defer f.mu.RUnlock()

	chain := make([]id.DomainID, 0, 4)
	for cursor := domainID; !cursor.IsNil(); {
		chain = append(chain, cursor)
		d, ok := f.domains[cursor]
		if !ok || len(chain) > len(f.domains)+1 {
			break
		}
		cursor = d.Parent
	}
	return chain
}

// RelatedDomains returns the cache invalidation set for a change in changed:
// the domain itself, its descendants (their queries inherit its edges), and
// its ancestors. Ancestors over-invalidate under downward-only inheritance; a
// spurious recompute beats a stale hit. Descendants are found by scanning the
// forest; invalidation is rare enough that O(domains · depth) is acceptable.
func (f *Forest) RelatedDomains(changed id.DomainID) []id.DomainID {
	related := f.AncestorsOf(changed)
	seen := make(map[id.DomainID]struct{}, len(related))
	for _, d := range related {
		seen[d] = struct{}{}
	}

	f.mu.RLock()
	candidates := make([]id.DomainID, 0, len(f.domains))
	for domainID := range f.domains {
		candidates = append(candidates, domainID)
	}
	f.mu.RUnlock()

	for _, domainID := range candidates {
		if _, ok := seen[domainID]; ok {
			continue
		}
		if _, ok := f.Distance(domainID, changed); ok {
			seen[domainID] = struct{}{}
			related = append(related, domainID)
		}
	}
	return related
}

// Len returns the number of domains in the forest.
func (f *Forest) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.domains)
}
