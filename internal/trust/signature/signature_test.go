package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/canonical"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

func newEdge(from id.PrincipalID) domain.TrustEdge {
	return domain.TrustEdge{
		ID:       id.NewEdgeID(),
		From:     from,
		To:       id.NewPrincipalID(),
		Domain:   id.NewDomainID(),
		Weight:   0.9,
		IssuedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestVerifyEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	from := id.NewPrincipalID()
	edge := newEdge(from)
	edge.Signature = SignEd25519(canonical.TrustEdge(edge), priv, edge.IssuedAt)

	t.Run("valid signature verifies", func(t *testing.T) {
		assert.True(t, VerifyTrustEdge(edge, pub))
	})

	t.Run("payload tamper invalidates", func(t *testing.T) {
		tampered := edge
		tampered.Weight = 0.99
		assert.False(t, VerifyTrustEdge(tampered, pub))
	})

	t.Run("signature bit flip invalidates", func(t *testing.T) {
		flipped := edge
		flipped.Signature.Bytes = append([]byte(nil), edge.Signature.Bytes...)
		flipped.Signature.Bytes[0] ^= 0x01
		assert.False(t, VerifyTrustEdge(flipped, pub))
	})

	t.Run("embedded key must match registered key", func(t *testing.T) {
		otherPub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		assert.False(t, VerifyTrustEdge(edge, otherPub))
	})

	t.Run("empty registered key fails closed", func(t *testing.T) {
		assert.False(t, VerifyTrustEdge(edge, nil))
	})
}

func TestVerifySecp256k1(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	registered := priv.PubKey().SerializeCompressed()

	edge := newEdge(id.NewPrincipalID())
	edge.Signature = SignSecp256k1(canonical.TrustEdge(edge), priv, edge.IssuedAt)

	t.Run("valid signature verifies", func(t *testing.T) {
		assert.True(t, VerifyTrustEdge(edge, registered))
	})

	t.Run("payload tamper invalidates", func(t *testing.T) {
		tampered := edge
		tampered.To = id.NewPrincipalID()
		assert.False(t, VerifyTrustEdge(tampered, registered))
	})

	t.Run("garbage DER fails closed", func(t *testing.T) {
		broken := edge
		broken.Signature.Bytes = []byte{0x30, 0x01, 0x00}
		assert.False(t, VerifyTrustEdge(broken, registered))
	})
}

func TestVerifyClosedAlgorithmSet(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	edge := newEdge(id.NewPrincipalID())
	sig := SignEd25519(canonical.TrustEdge(edge), priv, edge.IssuedAt)
	sig.Algorithm = domain.Algorithm("rsa")
	edge.Signature = sig

	assert.False(t, VerifyTrustEdge(edge, sig.PublicKey))
}

func TestVerifyEndorsement(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	end := domain.Endorsement{
		ID:       id.NewEdgeID(),
		From:     id.NewPrincipalID(),
		Subject:  id.NewSubjectID(),
		Domain:   id.NewDomainID(),
		Weight:   0.8,
		IssuedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	end.Signature = SignEd25519(canonical.Endorsement(end), priv, end.IssuedAt)

	assert.True(t, VerifyEndorsement(end, pub))

	tampered := end
	tampered.Subject = id.NewSubjectID()
	assert.False(t, VerifyEndorsement(tampered, pub))
}
