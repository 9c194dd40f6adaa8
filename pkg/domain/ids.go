// Package domain holds the typed identifiers shared across modules.
//
// IDs are distinct uuid-backed types so the compiler rejects cross-type
// assignment (a PrincipalID can never be passed where a SubjectID is
// expected). Parsing enforces the invariant that IDs are valid, non-nil
// UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
)

// maxIDLength bounds raw input before uuid.Parse sees it. A canonical UUID
// string is 36 bytes; anything much longer is garbage or an attack vector.
const maxIDLength = 64

type (
	// PrincipalID identifies a signing identity (user, organization, agent).
	PrincipalID uuid.UUID

	// SubjectID identifies an endorsement target; subjects never sign.
	SubjectID uuid.UUID

	// DomainID identifies a trust domain in the domain forest.
	DomainID uuid.UUID

	// EdgeID identifies a single signed trust edge or endorsement record.
	EdgeID uuid.UUID
)

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	if len(raw) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is too long")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParsePrincipalID parses and validates a principal ID from its string form.
func ParsePrincipalID(raw string) (PrincipalID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return PrincipalID{}, err
	}
	return PrincipalID(parsed), nil
}

// ParseSubjectID parses and validates a subject ID from its string form.
func ParseSubjectID(raw string) (SubjectID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return SubjectID{}, err
	}
	return SubjectID(parsed), nil
}

// ParseDomainID parses and validates a domain ID from its string form.
func ParseDomainID(raw string) (DomainID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return DomainID{}, err
	}
	return DomainID(parsed), nil
}

// ParseEdgeID parses and validates an edge ID from its string form.
func ParseEdgeID(raw string) (EdgeID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return EdgeID{}, err
	}
	return EdgeID(parsed), nil
}

// NewPrincipalID returns a fresh random principal ID.
func NewPrincipalID() PrincipalID { return PrincipalID(uuid.New()) }

// NewSubjectID returns a fresh random subject ID.
func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }

// NewDomainID returns a fresh random domain ID.
func NewDomainID() DomainID { return DomainID(uuid.New()) }

// NewEdgeID returns a fresh random edge ID.
func NewEdgeID() EdgeID { return EdgeID(uuid.New()) }

func (id PrincipalID) String() string { return uuid.UUID(id).String() }
func (id SubjectID) String() string   { return uuid.UUID(id).String() }
func (id DomainID) String() string    { return uuid.UUID(id).String() }
func (id EdgeID) String() string      { return uuid.UUID(id).String() }

func (id PrincipalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SubjectID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id DomainID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EdgeID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// Text marshalling so IDs serialize as canonical UUID strings in JSON, cache
// entries, and log output. Unmarshalling goes through the validating parser.

func (id PrincipalID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SubjectID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id DomainID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id EdgeID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func (id *PrincipalID) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipalID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SubjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseSubjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DomainID) UnmarshalText(text []byte) error {
	parsed, err := ParseDomainID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EdgeID) UnmarshalText(text []byte) error {
	parsed, err := ParseEdgeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
