package handler

import (
	"strings"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
)

// QueryRequest is the HTTP request body for POST /trust/query.
type QueryRequest struct {
	Source        string        `json:"source,omitempty"`
	Target        TargetRequest `json:"target"`
	Domain        string        `json:"domain"`
	MaxDepth      int           `json:"max_depth,omitempty"`
	MinConfidence float64       `json:"min_confidence,omitempty"`

	// Parsed values (populated by Validate)
	parsedSource id.PrincipalID
	parsedTarget domain.Target
	parsedDomain id.DomainID
}

// TargetRequest identifies the query target.
type TargetRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Validate validates and parses the request. Source is optional; when empty
// the handler substitutes the authenticated caller.
func (r *QueryRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Source = strings.TrimSpace(r.Source)
	if r.Source != "" {
		source, err := id.ParsePrincipalID(r.Source)
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "source must be a valid principal id")
		}
		r.parsedSource = source
	}

	r.Domain = strings.TrimSpace(r.Domain)
	if r.Domain == "" {
		return dErrors.New(dErrors.CodeBadRequest, "domain is required")
	}
	domainID, err := id.ParseDomainID(r.Domain)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "domain must be a valid domain id")
	}
	r.parsedDomain = domainID

	switch strings.TrimSpace(r.Target.Kind) {
	case "principal":
		principalID, err := id.ParsePrincipalID(r.Target.ID)
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "target.id must be a valid principal id")
		}
		r.parsedTarget = domain.PrincipalTarget(principalID)
	case "subject":
		subjectID, err := id.ParseSubjectID(r.Target.ID)
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "target.id must be a valid subject id")
		}
		r.parsedTarget = domain.SubjectTarget(subjectID)
	default:
		return dErrors.New(dErrors.CodeBadRequest, "target.kind must be principal or subject")
	}

	if r.MaxDepth < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "max_depth must be non-negative")
	}
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return dErrors.New(dErrors.CodeBadRequest, "min_confidence must be in [0,1]")
	}
	return nil
}

// Query builds the domain query, filling in the caller when the request left
// source empty.
func (r *QueryRequest) Query(caller id.PrincipalID) domain.Query {
	source := r.parsedSource
	if source.IsNil() {
		source = caller
	}
	return domain.Query{
		Source:        source,
		Target:        r.parsedTarget,
		Domain:        r.parsedDomain,
		MaxDepth:      r.MaxDepth,
		MinConfidence: r.MinConfidence,
	}
}
