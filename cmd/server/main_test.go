package main

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nintynick/transitive-trust-sub001/internal/platform/config"
	memorystore "github.com/nintynick/transitive-trust-sub001/internal/storage/memory"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/cache"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/engine"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/hierarchy"
)

func newTestService(t *testing.T) (*engine.Service, *memorystore.GraphStore) {
	t.Helper()
	forest := hierarchy.New()
	store := memorystore.NewGraphStore(forest)
	svc, err := engine.New(store, forest, cache.NewInMemoryCache(), engine.DefaultConfig())
	require.NoError(t, err)
	return svc, store
}

func TestAttachInvalidationWarnsWithoutNotifier(t *testing.T) {
	svc, _ := newTestService(t)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	cancel := attachInvalidation(svc, nil, log, 5*time.Minute)
	cancel()

	assert.Contains(t, buf.String(), "cache invalidation disabled")
	assert.Contains(t, buf.String(), "staleness_bound")
}

func TestAttachInvalidationSubscribesNotifier(t *testing.T) {
	svc, store := newTestService(t)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	cancel := attachInvalidation(svc, store, log, 5*time.Minute)
	defer cancel()

	assert.NotContains(t, buf.String(), "cache invalidation disabled")
}

func TestEngineConfigOverlaysDefaults(t *testing.T) {
	cfg := engineConfig(config.Engine{
		DecayFactor:  0.5,
		HardMaxDepth: 6,
	})

	assert.Equal(t, 0.5, cfg.DecayFactor)
	assert.Equal(t, 6, cfg.HardMaxDepth)

	defaults := engine.DefaultConfig()
	assert.Equal(t, defaults.InheritanceDiscount, cfg.InheritanceDiscount)
	assert.Equal(t, defaults.CacheTTL, cfg.CacheTTL)
}
