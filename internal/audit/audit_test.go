package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

func TestPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("emit stamps missing timestamps", func(t *testing.T) {
		store := NewInMemoryStore()
		p := NewPublisher(store)

		require.NoError(t, p.Emit(ctx, Event{Action: ActionQueryComputed}))

		events := store.All()
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.IsZero())
	})

	t.Run("emit preserves caller timestamps", func(t *testing.T) {
		store := NewInMemoryStore()
		p := NewPublisher(store)
		at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, p.Emit(ctx, Event{Action: ActionQueryTruncated, Timestamp: at}))

		events := store.All()
		require.Len(t, events, 1)
		assert.Equal(t, at, events[0].Timestamp)
	})

	t.Run("list filters by source", func(t *testing.T) {
		store := NewInMemoryStore()
		p := NewPublisher(store)
		alice, bob := id.NewPrincipalID(), id.NewPrincipalID()

		require.NoError(t, p.Emit(ctx, Event{Action: ActionQueryComputed, Source: alice, Score: 0.5}))
		require.NoError(t, p.Emit(ctx, Event{Action: ActionQueryComputed, Source: bob, Score: 0.9}))
		require.NoError(t, p.Emit(ctx, Event{Action: ActionQueryComputed, Source: alice, Score: 0.7}))

		events, err := p.List(ctx, alice)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, 0.5, events[0].Score)
		assert.Equal(t, 0.7, events[1].Score)
	})
}
