// Package canonical produces the deterministic byte encoding signed by
// write-side producers and checked by the verifier. The field order is fixed
// by this package, never by map iteration or caller ordering, so signing and
// verification over the same logical record always see identical bytes.
//
// The encoding is versioned; bumping the version is a breaking change to the
// signed-record contract shared with producers.
package canonical

import (
	"strconv"
	"strings"
	"time"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
)

// Version prefixes every encoding so old signatures cannot be replayed
// against a changed schema.
const Version = "trustgraph/v1"

const (
	kindTrustEdge   = "trust_edge"
	kindEndorsement = "endorsement"
)

// TrustEdge encodes the signable payload of a trust edge.
func TrustEdge(e domain.TrustEdge) []byte {
	return encode(kindTrustEdge,
		e.From.String(),
		e.To.String(),
		e.Domain.String(),
		weight(e.Weight),
		timestamp(e.IssuedAt),
		optionalTimestamp(e.ExpiresAt),
	)
}

// Endorsement encodes the signable payload of an endorsement.
func Endorsement(e domain.Endorsement) []byte {
	return encode(kindEndorsement,
		e.From.String(),
		e.Subject.String(),
		e.Domain.String(),
		weight(e.Weight),
		timestamp(e.IssuedAt),
		optionalTimestamp(e.ExpiresAt),
	)
}

func encode(kind string, fields ...string) []byte {
	var b strings.Builder
	b.WriteString(Version)
	b.WriteByte('|')
	b.WriteString(kind)
	for _, f := range fields {
		b.WriteByte('|')
		b.WriteString(f)
	}
	return []byte(b.String())
}

// weight renders a float with the shortest round-trippable representation so
// both sides format 0.9 identically regardless of how it was parsed.
func weight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// timestamp normalizes to UTC nanosecond RFC 3339 so producers in different
// zones encode the same instant identically.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func optionalTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return timestamp(*t)
}
