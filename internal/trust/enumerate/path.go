package enumerate

import (
	"strings"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

// Step is one verified trust edge on a path. EffectiveWeight is the edge
// weight after the domain-inheritance discount; it is what the aggregator
// multiplies, while the raw edge stays available for explanations.
type Step struct {
	Edge            domain.TrustEdge
	EffectiveWeight float64
}

// Terminal is the verified endorsement closing a path onto a subject target.
type Terminal struct {
	Endorsement     domain.Endorsement
	EffectiveWeight float64
}

// Path is one candidate chain from the source toward the target: an ordered
// sequence of verified trust edges, plus the terminal endorsement when the
// target is a subject.
type Path struct {
	Source   id.PrincipalID
	Steps    []Step
	Terminal *Terminal
}

// HopCount is the number of signed records on the path. The terminal
// endorsement counts as a hop: it compounds uncertainty like any other link.
func (p Path) HopCount() int {
	n := len(p.Steps)
	if p.Terminal != nil {
		n++
	}
	return n
}

// Principals returns the ordered principal chain starting at the source.
func (p Path) Principals() []id.PrincipalID {
	out := make([]id.PrincipalID, 0, len(p.Steps)+1)
	out = append(out, p.Source)
	for _, s := range p.Steps {
		out = append(out, s.Edge.To)
	}
	return out
}

// Intermediaries returns every principal on the path except the source. These
// are the contributors the sybil scorer discounts when shared across paths.
func (p Path) Intermediaries() []id.PrincipalID {
	out := make([]id.PrincipalID, 0, len(p.Steps))
	for _, s := range p.Steps {
		out = append(out, s.Edge.To)
	}
	return out
}

// Key is a stable identity for ordering paths deterministically.
func (p Path) Key() string {
	var b strings.Builder
	for _, principal := range p.Principals() {
		b.WriteString(principal.String())
		b.WriteByte('>')
	}
	if p.Terminal != nil {
		b.WriteString("s:")
		b.WriteString(p.Terminal.Endorsement.Subject.String())
	}
	return b.String()
}
