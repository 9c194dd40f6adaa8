package enumerate_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	memorystore "github.com/nintynick/transitive-trust-sub001/internal/storage/memory"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/canonical"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/enumerate"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/hierarchy"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/signature"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	"github.com/nintynick/transitive-trust-sub001/pkg/requestcontext"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// graph builds signed fixtures over the in-memory store.
type graph struct {
	t      *testing.T
	store  *memorystore.GraphStore
	forest *hierarchy.Forest
	keys   map[id.PrincipalID]ed25519.PrivateKey
}

func newGraph(t *testing.T) *graph {
	t.Helper()
	forest := hierarchy.New()
	return &graph{
		t:      t,
		store:  memorystore.NewGraphStore(forest),
		forest: forest,
		keys:   make(map[id.PrincipalID]ed25519.PrivateKey),
	}
}

func (g *graph) domain(parent id.DomainID, name string) id.DomainID {
	domainID := id.NewDomainID()
	require.NoError(g.t, g.forest.Ingest(domain.TrustDomain{ID: domainID, Parent: parent, Name: name}))
	return domainID
}

func (g *graph) principal() id.PrincipalID {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(g.t, err)

	principalID := id.NewPrincipalID()
	g.keys[principalID] = priv
	g.store.PutPrincipal(domain.Principal{
		ID:        principalID,
		Type:      domain.PrincipalUser,
		PublicKey: pub,
		Algorithm: domain.AlgorithmEd25519,
		CreatedAt: testNow.AddDate(-1, 0, 0),
	})
	return principalID
}

// keylessPrincipal registers a principal without a public key; anything it
// signs has an unknown signer.
func (g *graph) keylessPrincipal() id.PrincipalID {
	principalID := id.NewPrincipalID()
	g.store.PutPrincipal(domain.Principal{ID: principalID, Type: domain.PrincipalUser})
	return principalID
}

func (g *graph) edge(from, to id.PrincipalID, domainID id.DomainID, weight float64) domain.TrustEdge {
	edge := domain.TrustEdge{
		ID:       id.NewEdgeID(),
		From:     from,
		To:       to,
		Domain:   domainID,
		Weight:   weight,
		IssuedAt: testNow.AddDate(0, -1, 0),
	}
	if priv, ok := g.keys[from]; ok {
		edge.Signature = signature.SignEd25519(canonical.TrustEdge(edge), priv, edge.IssuedAt)
	}
	g.store.AddTrustEdge(edge)
	return edge
}

func (g *graph) endorsement(from id.PrincipalID, subject id.SubjectID, domainID id.DomainID, weight float64) domain.Endorsement {
	end := domain.Endorsement{
		ID:       id.NewEdgeID(),
		From:     from,
		Subject:  subject,
		Domain:   domainID,
		Weight:   weight,
		IssuedAt: testNow.AddDate(0, -1, 0),
	}
	if priv, ok := g.keys[from]; ok {
		end.Signature = signature.SignEd25519(canonical.Endorsement(end), priv, end.IssuedAt)
	}
	g.store.AddEndorsement(end)
	return end
}

func defaultCfg() enumerate.Config {
	return enumerate.Config{
		MaxDepth:            4,
		MaxFanout:           4,
		MaxVisited:          1000,
		InheritanceDiscount: 0.8,
	}
}

type EnumeratorSuite struct {
	suite.Suite
	ctx context.Context
}

func TestEnumeratorSuite(t *testing.T) {
	suite.Run(t, new(EnumeratorSuite))
}

func (s *EnumeratorSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), testNow)
}

func (s *EnumeratorSuite) run(g *graph, query domain.Query, cfg enumerate.Config) *enumerate.Outcome {
	enum, err := enumerate.New(g.store, g.forest)
	s.Require().NoError(err)
	outcome, err := enum.Run(s.ctx, query, cfg)
	s.Require().NoError(err)
	return outcome
}

func (s *EnumeratorSuite) TestFindsChainedPath() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	a, b, c := g.principal(), g.principal(), g.principal()
	g.edge(a, b, commerce, 0.9)
	g.edge(b, c, commerce, 0.8)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(c), Domain: commerce,
	}, defaultCfg())

	s.Require().Len(outcome.Paths, 1)
	s.False(outcome.Truncated)

	p := outcome.Paths[0]
	s.Equal([]id.PrincipalID{a, b, c}, p.Principals())
	s.Equal(2, p.HopCount())
	s.InDelta(0.9, p.Steps[0].EffectiveWeight, 1e-9)
	s.InDelta(0.8, p.Steps[1].EffectiveWeight, 1e-9)
}

func (s *EnumeratorSuite) TestToleratesCycles() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	a, b, c := g.principal(), g.principal(), g.principal()
	g.edge(a, b, commerce, 0.9)
	g.edge(b, a, commerce, 0.9) // mutual trust
	g.edge(b, b, commerce, 1.0) // self trust
	g.edge(b, c, commerce, 0.8)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(c), Domain: commerce,
	}, defaultCfg())

	s.Require().Len(outcome.Paths, 1)
	s.Equal([]id.PrincipalID{a, b, c}, outcome.Paths[0].Principals())
	s.False(outcome.Truncated)
}

func (s *EnumeratorSuite) TestSamePrincipalOnDistinctPaths() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	a, b, c, target := g.principal(), g.principal(), g.principal(), g.principal()
	g.edge(a, b, commerce, 0.9)
	g.edge(a, c, commerce, 0.9)
	g.edge(b, target, commerce, 0.9)
	g.edge(c, b, commerce, 0.9)
	g.edge(c, target, commerce, 0.9)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(target), Domain: commerce,
	}, defaultCfg())

	// a>b>t, a>c>t, a>c>b>t: b repeats across paths but never within one.
	s.Len(outcome.Paths, 3)
}

func (s *EnumeratorSuite) TestExcludesInvalidSignature() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	a, b, c := g.principal(), g.principal(), g.principal()
	g.edge(a, b, commerce, 0.9)

	forged := domain.TrustEdge{
		ID:       id.NewEdgeID(),
		From:     b,
		To:       c,
		Domain:   commerce,
		Weight:   1.0,
		IssuedAt: testNow.AddDate(0, -1, 0),
	}
	forged.Signature = signature.SignEd25519(canonical.TrustEdge(forged), g.keys[a], forged.IssuedAt)
	g.store.AddTrustEdge(forged)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(c), Domain: commerce,
	}, defaultCfg())

	s.Empty(outcome.Paths)
	s.Equal(1, outcome.Stats.InvalidSignature)
	s.False(outcome.Truncated)
}

func (s *EnumeratorSuite) TestExcludesUnknownSigner() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	a, c := g.principal(), g.principal()
	ghost := g.keylessPrincipal()
	g.edge(a, ghost, commerce, 0.9)
	g.edge(ghost, c, commerce, 0.9) // unsigned: ghost has no key

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(c), Domain: commerce,
	}, defaultCfg())

	s.Empty(outcome.Paths)
	s.Equal(1, outcome.Stats.UnknownSigner)
}

func (s *EnumeratorSuite) TestExcludesExpiredEdges() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	a, b := g.principal(), g.principal()

	expiry := testNow.AddDate(0, 0, -1)
	expired := domain.TrustEdge{
		ID:        id.NewEdgeID(),
		From:      a,
		To:        b,
		Domain:    commerce,
		Weight:    0.9,
		IssuedAt:  testNow.AddDate(0, -1, 0),
		ExpiresAt: &expiry,
	}
	expired.Signature = signature.SignEd25519(canonical.TrustEdge(expired), g.keys[a], expired.IssuedAt)
	g.store.AddTrustEdge(expired)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(b), Domain: commerce,
	}, defaultCfg())

	s.Empty(outcome.Paths)
	s.Equal(1, outcome.Stats.Expired)
}

func (s *EnumeratorSuite) TestDepthLimitTruncates() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")

	chain := []id.PrincipalID{g.principal()}
	for i := 0; i < 4; i++ {
		next := g.principal()
		g.edge(chain[len(chain)-1], next, commerce, 0.9)
		chain = append(chain, next)
	}

	cfg := defaultCfg()
	cfg.MaxDepth = 2

	outcome := s.run(g, domain.Query{
		Source: chain[0], Target: domain.PrincipalTarget(chain[len(chain)-1]), Domain: commerce,
	}, cfg)

	s.Empty(outcome.Paths)
	s.True(outcome.Truncated)
}

func (s *EnumeratorSuite) TestWorkBudgetTruncates() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	a, target := g.principal(), g.principal()
	for i := 0; i < 6; i++ {
		mid := g.principal()
		g.edge(a, mid, commerce, 0.9)
		g.edge(mid, target, commerce, 0.9)
	}

	cfg := defaultCfg()
	cfg.MaxVisited = 2

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(target), Domain: commerce,
	}, cfg)

	s.True(outcome.Truncated)
	s.Less(len(outcome.Paths), 6)
}

func (s *EnumeratorSuite) TestSubjectTargetTerminatesOnEndorsement() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	a, b := g.principal(), g.principal()
	subject := id.NewSubjectID()
	g.edge(a, b, commerce, 0.9)
	g.endorsement(b, subject, commerce, 0.7)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.SubjectTarget(subject), Domain: commerce,
	}, defaultCfg())

	s.Require().Len(outcome.Paths, 1)
	p := outcome.Paths[0]
	s.Require().NotNil(p.Terminal)
	s.Equal(subject, p.Terminal.Endorsement.Subject)
	s.InDelta(0.7, p.Terminal.EffectiveWeight, 1e-9)
	s.Equal(2, p.HopCount())
}

func (s *EnumeratorSuite) TestBestEndorsementPerEndorserWins() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	a, b := g.principal(), g.principal()
	subject := id.NewSubjectID()
	g.edge(a, b, commerce, 0.9)
	g.endorsement(b, subject, commerce, 0.4)
	g.endorsement(b, subject, commerce, 0.8)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.SubjectTarget(subject), Domain: commerce,
	}, defaultCfg())

	s.Require().Len(outcome.Paths, 1)
	s.InDelta(0.8, outcome.Paths[0].Terminal.EffectiveWeight, 1e-9)
}

func (s *EnumeratorSuite) TestInheritanceDiscountsParentDomainEdges() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	electronics := g.domain(commerce, "electronics")
	a, b := g.principal(), g.principal()

	// Edge scoped to the broad parent domain, queried in the child.
	g.edge(a, b, commerce, 0.9)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(b), Domain: electronics,
	}, defaultCfg())

	s.Require().Len(outcome.Paths, 1)
	// One hop of domain distance: 0.9 * 0.8.
	s.InDelta(0.72, outcome.Paths[0].Steps[0].EffectiveWeight, 1e-9)
}

func (s *EnumeratorSuite) TestDescendantDomainEdgesOutOfScope() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	electronics := g.domain(commerce, "electronics")
	a, b := g.principal(), g.principal()

	// Inheritance flows downward only: an edge scoped to the narrow child
	// domain must not count for a query in the broad parent domain.
	g.edge(a, b, electronics, 0.9)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(b), Domain: commerce,
	}, defaultCfg())

	s.Empty(outcome.Paths)
	s.False(outcome.Truncated)
}

func (s *EnumeratorSuite) TestUnrelatedDomainOutOfScope() {
	g := newGraph(s.T())
	commerce := g.domain(id.DomainID{}, "commerce")
	food := g.domain(id.DomainID{}, "food")
	a, b := g.principal(), g.principal()
	g.edge(a, b, food, 0.9)

	outcome := s.run(g, domain.Query{
		Source: a, Target: domain.PrincipalTarget(b), Domain: commerce,
	}, defaultCfg())

	s.Empty(outcome.Paths)
}
