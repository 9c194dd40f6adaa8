package domain

import (
	"time"

	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

// TargetKind distinguishes principal targets from subject targets.
type TargetKind string

const (
	TargetPrincipal TargetKind = "principal"
	TargetSubject   TargetKind = "subject"
)

// Target is the endpoint of a trust query: either another principal or a
// subject reached through a terminal endorsement.
type Target struct {
	Kind      TargetKind
	Principal id.PrincipalID
	Subject   id.SubjectID
}

// PrincipalTarget builds a principal-typed target.
func PrincipalTarget(principalID id.PrincipalID) Target {
	return Target{Kind: TargetPrincipal, Principal: principalID}
}

// SubjectTarget builds a subject-typed target.
func SubjectTarget(subjectID id.SubjectID) Target {
	return Target{Kind: TargetSubject, Subject: subjectID}
}

// Key returns a stable string form usable in cache keys.
func (t Target) Key() string {
	if t.Kind == TargetSubject {
		return "s:" + t.Subject.String()
	}
	return "p:" + t.Principal.String()
}

// Query is a request for a transitive trust score between a source principal
// and a target within a domain.
type Query struct {
	Source   id.PrincipalID
	Target   Target
	Domain   id.DomainID
	MaxDepth int

	// MinConfidence is a post-filter: results whose structural confidence
	// falls below it are zeroed, not suppressed. Zero disables the filter.
	MinConfidence float64
}

// PathExplanation describes one contributing path in a Result.
type PathExplanation struct {
	// Principals is the ordered chain from source to the terminal principal.
	Principals []id.PrincipalID

	// RawConfidence is the path's confidence before redundancy discounting:
	// the product of its edge weights times the depth decay.
	RawConfidence float64

	// AppliedDiscount is the redundancy discount factor in (0,1] applied to
	// this path during aggregation; 1 means the path counted in full.
	AppliedDiscount float64
}

// Result is the outcome of a trust query.
//
// Score and Confidence are deliberately distinct: confidence measures how
// structurally trustworthy the derivation is, not how much trust was found.
// "No path found" is a definite answer (score 0, confidence 1), while a
// truncated search is an indefinite one (reduced confidence, Truncated set).
type Result struct {
	Score       float64
	Confidence  float64
	Explanation []PathExplanation
	Truncated   bool
	ComputedAt  time.Time
}
