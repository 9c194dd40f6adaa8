//go:build integration

package postgres_test

import (
	"context"
	_ "embed"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	"github.com/nintynick/transitive-trust-sub001/internal/storage/postgres"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	"github.com/nintynick/transitive-trust-sub001/pkg/platform/sentinel"
	"github.com/nintynick/transitive-trust-sub001/pkg/testutil/containers"
)

//go:embed schema.sql
var schema string

type GraphStoreSuite struct {
	suite.Suite

	ctx    context.Context
	pg     *containers.PostgresContainer
	store  *postgres.GraphStore
	parent id.DomainID
	child  id.DomainID
	other  id.DomainID
}

func TestGraphStoreSuite(t *testing.T) {
	suite.Run(t, new(GraphStoreSuite))
}

func (s *GraphStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(s.pg.ApplySchema(s.ctx, schema))
}

func (s *GraphStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx,
		"trust_edges", "endorsements", "principals", "trust_domains"))

	s.parent = id.NewDomainID()
	s.child = id.NewDomainID()
	s.other = id.NewDomainID()

	_, err := s.pg.Exec(s.ctx,
		`INSERT INTO trust_domains (id, parent_id, name) VALUES ($1, NULL, 'commerce')`,
		s.parent.String())
	s.Require().NoError(err)
	_, err = s.pg.Exec(s.ctx,
		`INSERT INTO trust_domains (id, parent_id, name) VALUES ($1, $2, 'electronics')`,
		s.child.String(), s.parent.String())
	s.Require().NoError(err)
	_, err = s.pg.Exec(s.ctx,
		`INSERT INTO trust_domains (id, parent_id, name) VALUES ($1, NULL, 'healthcare')`,
		s.other.String())
	s.Require().NoError(err)

	forest, err := postgres.LoadDomains(s.ctx, s.pg.DB)
	s.Require().NoError(err)
	s.store = postgres.NewGraphStore(s.pg.DB, forest)
}

func (s *GraphStoreSuite) insertPrincipal(key []byte, createdAt time.Time) id.PrincipalID {
	principalID := id.NewPrincipalID()
	_, err := s.pg.Exec(s.ctx,
		`INSERT INTO principals (id, type, public_key, algorithm, created_at) VALUES ($1, 'user', $2, 'ed25519', $3)`,
		principalID.String(), key, createdAt)
	s.Require().NoError(err)
	return principalID
}

func (s *GraphStoreSuite) insertEdge(from, to id.PrincipalID, domainID id.DomainID, weight float64) id.EdgeID {
	edgeID := id.NewEdgeID()
	now := time.Now().UTC()
	_, err := s.pg.Exec(s.ctx,
		`INSERT INTO trust_edges
			(id, from_principal, to_principal, domain_id, weight,
			 sig_algorithm, sig_public_key, sig_bytes, sig_signed_at, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, 'ed25519', $6, $7, $8, $8, NULL)`,
		edgeID.String(), from.String(), to.String(), domainID.String(), weight,
		[]byte("pub"), []byte("sig"), now)
	s.Require().NoError(err)
	return edgeID
}

func (s *GraphStoreSuite) TestLoadDomainsResolvesOutOfOrderParents() {
	// SetupTest already loaded the forest; grandchild named to sort before
	// its parent exercises the retry path.
	grandchild := id.NewDomainID()
	_, err := s.pg.Exec(s.ctx,
		`INSERT INTO trust_domains (id, parent_id, name) VALUES ($1, $2, 'audio')`,
		grandchild.String(), s.child.String())
	s.Require().NoError(err)

	forest, err := postgres.LoadDomains(s.ctx, s.pg.DB)
	s.Require().NoError(err)

	hops, ok := forest.Distance(grandchild, s.parent)
	s.Require().True(ok)
	s.Equal(2, hops)
}

func (s *GraphStoreSuite) TestOutgoingTrustEdgesScopedToAncestors() {
	now := time.Now().UTC().Add(-time.Hour)
	a := s.insertPrincipal([]byte("ka"), now)
	b := s.insertPrincipal([]byte("kb"), now)

	s.insertEdge(a, b, s.parent, 0.9)
	s.insertEdge(a, b, s.child, 0.8)
	s.insertEdge(a, b, s.other, 0.7)

	s.Run("child query inherits parent edges", func() {
		edges, err := s.store.OutgoingTrustEdges(s.ctx, a, s.child)
		s.Require().NoError(err)
		s.Require().Len(edges, 2)

		weights := map[id.DomainID]float64{}
		for _, edge := range edges {
			s.Equal(a, edge.From)
			s.Equal(b, edge.To)
			weights[edge.Domain] = edge.Weight
		}
		s.InDelta(0.9, weights[s.parent], 1e-12)
		s.InDelta(0.8, weights[s.child], 1e-12)
	})

	s.Run("parent query excludes descendant edges", func() {
		edges, err := s.store.OutgoingTrustEdges(s.ctx, a, s.parent)
		s.Require().NoError(err)
		s.Require().Len(edges, 1)
		s.Equal(s.parent, edges[0].Domain)
	})
}

func (s *GraphStoreSuite) TestIncomingEndorsementsRoundTrip() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	endorser := s.insertPrincipal([]byte("ke"), now.Add(-time.Hour))
	subject := id.NewSubjectID()
	endorsementID := id.NewEdgeID()
	expires := now.Add(24 * time.Hour)

	_, err := s.pg.Exec(s.ctx,
		`INSERT INTO endorsements
			(id, from_principal, subject_id, domain_id, weight,
			 sig_algorithm, sig_public_key, sig_bytes, sig_signed_at, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, 0.75, 'ed25519', $5, $6, $7, $7, $8)`,
		endorsementID.String(), endorser.String(), subject.String(), s.child.String(),
		[]byte("pub"), []byte("sig"), now, expires)
	s.Require().NoError(err)

	ends, err := s.store.IncomingEndorsements(s.ctx, subject, s.child)
	s.Require().NoError(err)
	s.Require().Len(ends, 1)

	end := ends[0]
	s.Equal(endorsementID, end.ID)
	s.Equal(endorser, end.From)
	s.Equal(subject, end.Subject)
	s.Equal(s.child, end.Domain)
	s.InDelta(0.75, end.Weight, 1e-12)
	s.Equal(domain.AlgorithmEd25519, end.Signature.Algorithm)
	s.Require().NotNil(end.ExpiresAt)
	s.True(expires.Equal(*end.ExpiresAt))
}

func (s *GraphStoreSuite) TestPublicKeyOf() {
	now := time.Now().UTC()
	known := s.insertPrincipal([]byte("registered-key"), now)

	key, err := s.store.PublicKeyOf(s.ctx, known)
	s.Require().NoError(err)
	s.Equal([]byte("registered-key"), key)

	_, err = s.store.PublicKeyOf(s.ctx, id.NewPrincipalID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *GraphStoreSuite) TestStatsOf() {
	createdAt := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Microsecond)
	target := s.insertPrincipal([]byte("kt"), createdAt)
	repeat := s.insertPrincipal([]byte("kr"), createdAt)
	once := s.insertPrincipal([]byte("ko"), createdAt)
	outside := s.insertPrincipal([]byte("kx"), createdAt)

	s.insertEdge(repeat, target, s.parent, 0.9)
	s.insertEdge(repeat, target, s.child, 0.8)
	s.insertEdge(once, target, s.parent, 0.7)
	s.insertEdge(outside, target, s.other, 0.6)

	stats, err := s.store.StatsOf(s.ctx, target, s.child)
	s.Require().NoError(err)

	s.Equal(3, stats.InDegree)
	s.Equal(2, stats.DistinctUpstream)
	s.True(createdAt.Equal(stats.CreatedAt))
}
