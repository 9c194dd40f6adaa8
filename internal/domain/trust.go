// Package domain holds the records the trust engine computes over. The engine
// receives these as already-persisted facts from the storage layer and treats
// them as immutable for the duration of a query.
package domain

import (
	"time"

	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

// PrincipalType enumerates the kinds of signing identities.
type PrincipalType string

const (
	PrincipalUser         PrincipalType = "user"
	PrincipalOrganization PrincipalType = "organization"
	PrincipalAgent        PrincipalType = "agent"
)

// SubjectType enumerates the kinds of endorsement targets.
type SubjectType string

const (
	SubjectBusiness   SubjectType = "business"
	SubjectIndividual SubjectType = "individual"
	SubjectProduct    SubjectType = "product"
	SubjectService    SubjectType = "service"
)

// Algorithm enumerates the supported signature algorithms. The set is closed;
// anything else fails verification.
type Algorithm string

const (
	AlgorithmEd25519   Algorithm = "ed25519"
	AlgorithmSecp256k1 Algorithm = "secp256k1"
)

// Valid reports whether the algorithm is one of the supported values.
func (a Algorithm) Valid() bool {
	return a == AlgorithmEd25519 || a == AlgorithmSecp256k1
}

// Principal is the identity anchor for signature verification. Immutable once
// created except metadata.
type Principal struct {
	ID        id.PrincipalID
	Type      PrincipalType
	PublicKey []byte
	Algorithm Algorithm
	CreatedAt time.Time
}

// Subject is an endorsement target. Subjects never sign anything.
type Subject struct {
	ID          id.SubjectID
	Type        SubjectType
	Domains     []id.DomainID
	Location    string
	ExternalIDs map[string]string
}

// TrustDomain is a named category scoping trust relationships. Domains form a
// forest: each has at most one parent, and the parent chain is acyclic (cycles
// are rejected at ingestion, never tolerated at query time).
type TrustDomain struct {
	ID     id.DomainID
	Parent id.DomainID // nil UUID for a root domain
	Name   string
}

// Signature binds the signer's declared public key to the canonical encoding
// of the signed payload.
type Signature struct {
	Algorithm Algorithm
	PublicKey []byte
	Bytes     []byte
	SignedAt  time.Time
}

// TrustEdge is a signed delegation of trust from one principal to another
// within a domain. Directed, not necessarily symmetric; the principal graph
// may contain cycles by design.
type TrustEdge struct {
	ID        id.EdgeID
	From      id.PrincipalID
	To        id.PrincipalID
	Domain    id.DomainID
	Weight    float64
	Signature Signature
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

// LiveAt reports whether the edge's validity window contains now.
func (e TrustEdge) LiveAt(now time.Time) bool {
	if now.Before(e.IssuedAt) {
		return false
	}
	return e.ExpiresAt == nil || now.Before(*e.ExpiresAt)
}

// WeightInBounds reports whether the edge weight respects the [0,1] invariant.
func (e TrustEdge) WeightInBounds() bool {
	return e.Weight >= 0 && e.Weight <= 1
}

// Endorsement is a signed statement from a principal about a subject within a
// domain. It is the terminal edge from the trust graph into a subject.
type Endorsement struct {
	ID        id.EdgeID
	From      id.PrincipalID
	Subject   id.SubjectID
	Domain    id.DomainID
	Weight    float64
	Signature Signature
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

// LiveAt reports whether the endorsement's validity window contains now.
func (e Endorsement) LiveAt(now time.Time) bool {
	if now.Before(e.IssuedAt) {
		return false
	}
	return e.ExpiresAt == nil || now.Before(*e.ExpiresAt)
}

// WeightInBounds reports whether the endorsement weight respects the [0,1] invariant.
func (e Endorsement) WeightInBounds() bool {
	return e.Weight >= 0 && e.Weight <= 1
}
