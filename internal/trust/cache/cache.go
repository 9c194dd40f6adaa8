// Package cache holds computed trust results keyed by query tuple.
//
// Invalidation is deliberately coarse: a graph change in a domain drops every
// cached result computed under that domain. Staleness inside that window is a
// defect; over-invalidation is merely a recomputation.
package cache

import (
	"context"
	"fmt"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

// Key identifies a cached result. MinConfidence is excluded on purpose: it is
// a post-filter applied per request, so all thresholds share one entry.
type Key struct {
	Source   id.PrincipalID
	Target   string
	Domain   id.DomainID
	MaxDepth int
}

// KeyFor builds the cache key for a query.
func KeyFor(q domain.Query) Key {
	return Key{
		Source:   q.Source,
		Target:   q.Target.Key(),
		Domain:   q.Domain,
		MaxDepth: q.MaxDepth,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("trust:%s:%s:%s:%d", k.Source, k.Target, k.Domain, k.MaxDepth)
}

// ResultCache stores computed results. Implementations must be safe for
// concurrent use; queries only ever contend on the same key.
type ResultCache interface {
	// Get returns the cached result for key, or ok=false on a miss. A failing
	// backend reports a miss, never an error: the cache is an optimization.
	Get(ctx context.Context, key Key) (domain.Result, bool)

	// Set stores a result under key.
	Set(ctx context.Context, key Key, result domain.Result)

	// InvalidateDomain drops every entry computed under the given domain.
	InvalidateDomain(ctx context.Context, domainID id.DomainID)
}
