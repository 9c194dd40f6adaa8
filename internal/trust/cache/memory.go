package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

// InMemoryCache is the default process-local result cache. A per-domain index
// makes coarse invalidation O(entries in the domain) instead of a full scan.
type InMemoryCache struct {
	mu       sync.RWMutex
	entries  map[Key]entry
	byDomain map[id.DomainID]map[Key]struct{}
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	result    domain.Result
	expiresAt time.Time
}

// MemoryOption configures an InMemoryCache.
type MemoryOption func(*InMemoryCache)

// WithTTL bounds entry lifetime even without invalidation signals. Zero
// disables expiry.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(c *InMemoryCache) { c.ttl = ttl }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *InMemoryCache) { c.now = now }
}

// NewInMemoryCache creates an empty cache.
func NewInMemoryCache(opts ...MemoryOption) *InMemoryCache {
	c := &InMemoryCache{
		entries:  make(map[Key]entry),
		byDomain: make(map[id.DomainID]map[Key]struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *InMemoryCache) Get(_ context.Context, key Key) (domain.Result, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return domain.Result{}, false
	}
	if c.ttl > 0 && c.now().After(e.expiresAt) {
		c.mu.Lock()
		c.removeLocked(key)
		c.mu.Unlock()
		return domain.Result{}, false
	}
	return e.result, true
}

func (c *InMemoryCache) Set(_ context.Context, key Key, result domain.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{result: result}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[key] = e

	idx, ok := c.byDomain[key.Domain]
	if !ok {
		idx = make(map[Key]struct{})
		c.byDomain[key.Domain] = idx
	}
	idx[key] = struct{}{}
}

func (c *InMemoryCache) InvalidateDomain(_ context.Context, domainID id.DomainID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.byDomain[domainID] {
		delete(c.entries, key)
	}
	delete(c.byDomain, domainID)
}

// Len returns the number of live entries. Test helper.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// removeLocked must be called with the write lock held.
func (c *InMemoryCache) removeLocked(key Key) {
	delete(c.entries, key)
	if idx, ok := c.byDomain[key.Domain]; ok {
		delete(idx, key)
		if len(idx) == 0 {
			delete(c.byDomain, key.Domain)
		}
	}
}
