package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

// chain builds commerce <- electronics <- laptops and returns the forest plus
// the three IDs, root first.
func chain(t *testing.T) (*Forest, id.DomainID, id.DomainID, id.DomainID) {
	t.Helper()
	f := New()
	commerce := id.NewDomainID()
	electronics := id.NewDomainID()
	laptops := id.NewDomainID()

	require.NoError(t, f.Ingest(domain.TrustDomain{ID: commerce, Name: "commerce"}))
	require.NoError(t, f.Ingest(domain.TrustDomain{ID: electronics, Parent: commerce, Name: "electronics"}))
	require.NoError(t, f.Ingest(domain.TrustDomain{ID: laptops, Parent: electronics, Name: "laptops"}))
	return f, commerce, electronics, laptops
}

func TestIngestRejectsCycles(t *testing.T) {
	t.Run("self parent", func(t *testing.T) {
		f := New()
		d := id.NewDomainID()
		err := f.Ingest(domain.TrustDomain{ID: d, Parent: d})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCyclicHierarchy))
	})

	t.Run("reparenting onto a descendant", func(t *testing.T) {
		f, commerce, _, laptops := chain(t)
		err := f.Ingest(domain.TrustDomain{ID: commerce, Parent: laptops, Name: "commerce"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCyclicHierarchy))

		// The rejected record must not have replaced the original.
		got, ok := f.Get(commerce)
		require.True(t, ok)
		assert.True(t, got.Parent.IsNil())
	})

	t.Run("nil id", func(t *testing.T) {
		f := New()
		require.Error(t, f.Ingest(domain.TrustDomain{}))
	})
}

func TestDistance(t *testing.T) {
	f, commerce, electronics, laptops := chain(t)

	hops, ok := f.Distance(laptops, commerce)
	require.True(t, ok)
	assert.Equal(t, 2, hops)

	hops, ok = f.Distance(electronics, electronics)
	require.True(t, ok)
	assert.Equal(t, 0, hops)

	// Distance is directional: ancestors are not descendants.
	_, ok = f.Distance(commerce, laptops)
	assert.False(t, ok)

	_, ok = f.Distance(id.NewDomainID(), commerce)
	assert.False(t, ok)
}

func TestInScope(t *testing.T) {
	f, commerce, electronics, laptops := chain(t)
	unrelated := id.NewDomainID()
	require.NoError(t, f.Ingest(domain.TrustDomain{ID: unrelated, Name: "food"}))

	t.Run("same domain, zero hops", func(t *testing.T) {
		hops, ok := f.InScope(electronics, electronics)
		require.True(t, ok)
		assert.Equal(t, 0, hops)
	})

	t.Run("edge in ancestor counts for descendant query", func(t *testing.T) {
		hops, ok := f.InScope(commerce, laptops)
		require.True(t, ok)
		assert.Equal(t, 2, hops)
	})

	t.Run("edge in descendant never widens into an ancestor query", func(t *testing.T) {
		_, ok := f.InScope(laptops, commerce)
		assert.False(t, ok)

		_, ok = f.InScope(laptops, electronics)
		assert.False(t, ok)
	})

	t.Run("unrelated domains are out of scope", func(t *testing.T) {
		_, ok := f.InScope(unrelated, laptops)
		assert.False(t, ok)
	})
}

func TestRelatedDomains(t *testing.T) {
	f, commerce, electronics, laptops := chain(t)
	unrelated := id.NewDomainID()
	require.NoError(t, f.Ingest(domain.TrustDomain{ID: unrelated, Name: "food"}))

	related := f.RelatedDomains(electronics)

	set := make(map[id.DomainID]struct{}, len(related))
	for _, d := range related {
		set[d] = struct{}{}
	}
	assert.Contains(t, set, electronics)
	assert.Contains(t, set, commerce)
	assert.Contains(t, set, laptops)
	assert.NotContains(t, set, unrelated)
}

func TestAncestorsOf(t *testing.T) {
	f, commerce, electronics, laptops := chain(t)
	assert.Equal(t, []id.DomainID{laptops, electronics, commerce}, f.AncestorsOf(laptops))
	assert.Equal(t, []id.DomainID{commerce}, f.AncestorsOf(commerce))
}
