// Package postgres persists the trust graph in PostgreSQL. Each read is a
// single statement against an MVCC snapshot; cross-call consistency within a
// query holds because signed records are immutable and writes are append-only
// (supersession by later issued_at, never in-place edits).
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/hierarchy"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/ports"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
	"github.com/nintynick/transitive-trust-sub001/pkg/platform/sentinel"
)

// GraphStore implements ports.GraphStore over a pgx pool.
type GraphStore struct {
	pool   *pgxpool.Pool
	forest *hierarchy.Forest
}

// NewGraphStore wraps an existing pool. The forest resolves which domains are
// in scope for a query before the SQL runs.
func NewGraphStore(pool *pgxpool.Pool, forest *hierarchy.Forest) *GraphStore {
	return &GraphStore{pool: pool, forest: forest}
}

// LoadDomains reads the domain table into a fresh forest, rejecting cyclic
// parent chains at ingestion.
func LoadDomains(ctx context.Context, pool *pgxpool.Pool) (*hierarchy.Forest, error) {
	rows, err := pool.Query(ctx, `SELECT id, parent_id, name FROM trust_domains ORDER BY name`)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load trust domains")
	}
	defer rows.Close()

	var records []domain.TrustDomain
	for rows.Next() {
		var (
			domainID string
			parentID *string
			name     string
		)
		if err := rows.Scan(&domainID, &parentID, &name); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan trust domain")
		}
		parsed, err := id.ParseDomainID(domainID)
		if err != nil {
			return nil, err
		}
		d := domain.TrustDomain{ID: parsed, Name: name}
		if parentID != nil {
			parent, err := id.ParseDomainID(*parentID)
			if err != nil {
				return nil, err
			}
			d.Parent = parent
		}
		records = append(records, d)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "iterate trust domains")
	}

	// Parents may sort after children; retry unresolved records until the
	// set stops shrinking, then surface whatever Ingest rejects.
	forest := hierarchy.New()
	pending := records
	for len(pending) > 0 {
		var next []domain.TrustDomain
		var lastErr error
		for _, d := range pending {
			if err := forest.Ingest(d); err != nil {
				lastErr = err
				next = append(next, d)
			}
		}
		if len(next) == len(pending) {
			return nil, lastErr
		}
		pending = next
	}
	return forest, nil
}

const edgeColumns = `id, from_principal, to_principal, domain_id, weight,
	sig_algorithm, sig_public_key, sig_bytes, sig_signed_at, issued_at, expires_at`

func (s *GraphStore) OutgoingTrustEdges(ctx context.Context, principalID id.PrincipalID, queryDomain id.DomainID) ([]domain.TrustEdge, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+edgeColumns+` FROM trust_edges WHERE from_principal = $1 AND domain_id = ANY($2)`,
		principalID.String(), s.scopeDomains(queryDomain))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "query outgoing edges")
	}
	defer rows.Close()

	var edges []domain.TrustEdge
	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "iterate outgoing edges")
	}
	return edges, nil
}

func (s *GraphStore) IncomingEndorsements(ctx context.Context, subjectID id.SubjectID, queryDomain id.DomainID) ([]domain.Endorsement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, from_principal, subject_id, domain_id, weight,
			sig_algorithm, sig_public_key, sig_bytes, sig_signed_at, issued_at, expires_at
		FROM endorsements WHERE subject_id = $1 AND domain_id = ANY($2)`,
		subjectID.String(), s.scopeDomains(queryDomain))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "query endorsements")
	}
	defer rows.Close()

	var endorsements []domain.Endorsement
	for rows.Next() {
		var (
			end                      domain.Endorsement
			edgeID, from, subject    string
			domainID, algorithm      string
			signedAt, issuedAt       time.Time
			expiresAt                *time.Time
		)
		if err := rows.Scan(&edgeID, &from, &subject, &domainID, &end.Weight,
			&algorithm, &end.Signature.PublicKey, &end.Signature.Bytes, &signedAt, &issuedAt, &expiresAt); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan endorsement")
		}
		if err := assignIDs(edgeID, from, domainID, &end.ID, &end.From, &end.Domain); err != nil {
			return nil, err
		}
		parsedSubject, err := id.ParseSubjectID(subject)
		if err != nil {
			return nil, err
		}
		end.Subject = parsedSubject
		end.Signature.Algorithm = domain.Algorithm(algorithm)
		end.Signature.SignedAt = signedAt
		end.IssuedAt = issuedAt
		end.ExpiresAt = expiresAt
		endorsements = append(endorsements, end)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "iterate endorsements")
	}
	return endorsements, nil
}

func (s *GraphStore) PublicKeyOf(ctx context.Context, principalID id.PrincipalID) ([]byte, error) {
	var key []byte
	err := s.pool.QueryRow(ctx,
		`SELECT public_key FROM principals WHERE id = $1`, principalID.String()).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "no registered public key")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "query public key")
	}
	return key, nil
}

func (s *GraphStore) StatsOf(ctx context.Context, principalID id.PrincipalID, queryDomain id.DomainID) (ports.PrincipalStats, error) {
	var stats ports.PrincipalStats
	err := s.pool.QueryRow(ctx,
		`SELECT count(*), count(DISTINCT from_principal)
		FROM trust_edges WHERE to_principal = $1 AND domain_id = ANY($2)`,
		principalID.String(), s.scopeDomains(queryDomain)).Scan(&stats.InDegree, &stats.DistinctUpstream)
	if err != nil {
		return ports.PrincipalStats{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "query principal stats")
	}

	err = s.pool.QueryRow(ctx,
		`SELECT created_at FROM principals WHERE id = $1`, principalID.String()).Scan(&stats.CreatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return ports.PrincipalStats{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "query principal age")
	}
	return stats, nil
}

// scopeDomains expands a query domain to itself plus its ancestors, the
// downward-inheritance relation the engine discounts by. Descendant domains
// stay out: their edges never widen into an ancestor query.
func (s *GraphStore) scopeDomains(queryDomain id.DomainID) []string {
	chain := s.forest.AncestorsOf(queryDomain)
	out := make([]string, 0, len(chain))
	for _, d := range chain {
		out = append(out, d.String())
	}
	return out
}

func scanEdge(rows pgx.Rows) (domain.TrustEdge, error) {
	var (
		edge                domain.TrustEdge
		edgeID, from, to    string
		domainID, algorithm string
		signedAt, issuedAt  time.Time
		expiresAt           *time.Time
	)
	if err := rows.Scan(&edgeID, &from, &to, &domainID, &edge.Weight,
		&algorithm, &edge.Signature.PublicKey, &edge.Signature.Bytes, &signedAt, &issuedAt, &expiresAt); err != nil {
		return domain.TrustEdge{}, dErrors.Wrap(err, dErrors.CodeInternal, "scan trust edge")
	}
	if err := assignIDs(edgeID, from, domainID, &edge.ID, &edge.From, &edge.Domain); err != nil {
		return domain.TrustEdge{}, err
	}
	parsedTo, err := id.ParsePrincipalID(to)
	if err != nil {
		return domain.TrustEdge{}, err
	}
	edge.To = parsedTo
	edge.Signature.Algorithm = domain.Algorithm(algorithm)
	edge.Signature.SignedAt = signedAt
	edge.IssuedAt = issuedAt
	edge.ExpiresAt = expiresAt
	return edge, nil
}

func assignIDs(edgeID, from, domainID string, outEdge *id.EdgeID, outFrom *id.PrincipalID, outDomain *id.DomainID) error {
	parsedEdge, err := id.ParseEdgeID(edgeID)
	if err != nil {
		return err
	}
	parsedFrom, err := id.ParsePrincipalID(from)
	if err != nil {
		return err
	}
	parsedDomain, err := id.ParseDomainID(domainID)
	if err != nil {
		return err
	}
	*outEdge = parsedEdge
	*outFrom = parsedFrom
	*outDomain = parsedDomain
	return nil
}
