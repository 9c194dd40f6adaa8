package test

import (
	"crypto/ed25519"
	"crypto/rand"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	"github.com/nintynick/transitive-trust-sub001/internal/principal"
	memorystore "github.com/nintynick/transitive-trust-sub001/internal/storage/memory"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/cache"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/canonical"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/engine"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/handler"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/hierarchy"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/signature"
	httptransport "github.com/nintynick/transitive-trust-sub001/internal/transport/http"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	"github.com/nintynick/transitive-trust-sub001/pkg/testutil"
)

// stack is the full service assembled over the in-memory backend.
type stack struct {
	router   http.Handler
	resolver *principal.Resolver
	store    *memorystore.GraphStore
	domain   id.DomainID
	keys     map[id.PrincipalID]ed25519.PrivateKey
}

func newStack(t *testing.T) *stack {
	t.Helper()

	forest := hierarchy.New()
	domainID := id.NewDomainID()
	require.NoError(t, forest.Ingest(domain.TrustDomain{ID: domainID, Name: "commerce"}))

	store := memorystore.NewGraphStore(forest)
	logger := slog.New(slog.DiscardHandler)

	svc, err := engine.New(store, forest, cache.NewInMemoryCache(), engine.DefaultConfig(),
		engine.WithLogger(logger),
	)
	require.NoError(t, err)
	t.Cleanup(svc.AttachInvalidation(store))

	resolver := principal.NewResolver("e2e-secret", "trustgraph", "trustgraph")
	router := httptransport.NewRouter(httptransport.Deps{
		Trust:    handler.New(svc, logger),
		Resolver: resolver,
	}, logger)

	return &stack{
		router:   router,
		resolver: resolver,
		store:    store,
		domain:   domainID,
		keys:     make(map[id.PrincipalID]ed25519.PrivateKey),
	}
}

func (s *stack) principal(t *testing.T) id.PrincipalID {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	principalID := id.NewPrincipalID()
	s.keys[principalID] = priv
	s.store.PutPrincipal(domain.Principal{
		ID:        principalID,
		Type:      domain.PrincipalUser,
		PublicKey: pub,
		Algorithm: domain.AlgorithmEd25519,
		CreatedAt: time.Now().UTC().AddDate(-1, 0, 0),
	})
	return principalID
}

func (s *stack) edge(from, to id.PrincipalID, weight float64) {
	edge := domain.TrustEdge{
		ID:       id.NewEdgeID(),
		From:     from,
		To:       to,
		Domain:   s.domain,
		Weight:   weight,
		IssuedAt: time.Now().UTC().Add(-time.Hour),
	}
	edge.Signature = signature.SignEd25519(canonical.TrustEdge(edge), s.keys[from], edge.IssuedAt)
	s.store.AddTrustEdge(edge)
}

func (s *stack) token(t *testing.T, caller id.PrincipalID) string {
	t.Helper()
	token, err := s.resolver.GenerateToken(caller, time.Hour)
	require.NoError(t, err)
	return token
}

func TestTrustQueryEndToEnd(t *testing.T) {
	testutil.Given(t, "a trust graph where alice trusts bob and bob trusts carol", func(t *testing.T) {
		s := newStack(t)
		alice, bob, carol := s.principal(t), s.principal(t), s.principal(t)
		s.edge(alice, bob, 0.9)
		s.edge(bob, carol, 0.8)

		body := map[string]any{
			"domain": s.domain.String(),
			"target": map[string]string{"kind": "principal", "id": carol.String()},
		}

		testutil.When(t, "alice queries her trust in carol", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/trust/query", body)
			req.Header.Set("Authorization", "Bearer "+s.token(t, alice))
			rr := testutil.DoRequest(s.router, req)

			testutil.Then(t, "the decayed transitive score comes back", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				resp := testutil.UnmarshalResponse[handler.QueryResponse](t, rr)
				assert.InDelta(t, 0.5832, resp.Score, 1e-9)
				assert.InDelta(t, 1.0, resp.Confidence, 1e-9)
				require.Len(t, resp.Paths, 1)
				assert.Equal(t, []string{alice.String(), bob.String(), carol.String()}, resp.Paths[0].Principals)
			})
		})

		testutil.When(t, "the request carries no token", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/trust/query", body)
			rr := testutil.DoRequest(s.router, req)

			testutil.Then(t, "the query is rejected before reaching the engine", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})

		testutil.When(t, "a new edge lands after a cached answer", func(t *testing.T) {
			dave := s.principal(t)
			daveBody := map[string]any{
				"domain": s.domain.String(),
				"target": map[string]string{"kind": "principal", "id": dave.String()},
			}

			req := testutil.NewJSONRequest(t, http.MethodPost, "/trust/query", daveBody)
			req.Header.Set("Authorization", "Bearer "+s.token(t, alice))
			before := testutil.UnmarshalResponse[handler.QueryResponse](t, testutil.DoRequest(s.router, req))
			require.Zero(t, before.Score)

			s.edge(carol, dave, 0.9)

			testutil.Then(t, "the change feed invalidates the cached zero", func(t *testing.T) {
				req := testutil.NewJSONRequest(t, http.MethodPost, "/trust/query", daveBody)
				req.Header.Set("Authorization", "Bearer "+s.token(t, alice))
				after := testutil.UnmarshalResponse[handler.QueryResponse](t, testutil.DoRequest(s.router, req))
				assert.Greater(t, after.Score, 0.0)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	s := newStack(t)

	testutil.When(t, "probing health", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
	})

	testutil.When(t, "scraping metrics without a token", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
	})
}
