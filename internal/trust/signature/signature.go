// Package signature implements the signed-record contract: verification of
// trust edges and endorsements against a principal's registered public key,
// and the signing helpers the write side uses to produce them.
//
// Verification fails closed. A mismatched algorithm, a key or signature that
// does not parse, or a cryptographic failure all yield "invalid", never an
// error the caller could be tempted to retry. An invalid record is terminally
// excluded from trust computation.
package signature

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/canonical"
)

// Verify reports whether sig is a valid signature over payload.
//
// registeredKey is the signer's public key as registered with the graph
// store, resolved externally; the key embedded in the signature is required
// to match it exactly so a record cannot vouch for itself with an arbitrary
// key.
func Verify(payload []byte, sig domain.Signature, registeredKey []byte) bool {
	if len(registeredKey) == 0 || len(sig.Bytes) == 0 {
		return false
	}
	if !bytes.Equal(sig.PublicKey, registeredKey) {
		return false
	}

	switch sig.Algorithm {
	case domain.AlgorithmEd25519:
		if len(registeredKey) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(registeredKey), payload, sig.Bytes)

	case domain.AlgorithmSecp256k1:
		pubKey, err := secp256k1.ParsePubKey(registeredKey)
		if err != nil {
			return false
		}
		parsed, err := secpecdsa.ParseDERSignature(sig.Bytes)
		if err != nil {
			return false
		}
		digest := sha256.Sum256(payload)
		return parsed.Verify(digest[:], pubKey)

	default:
		// Closed algorithm set: anything else is invalid, not an error.
		return false
	}
}

// VerifyTrustEdge checks an edge's signature over its canonical encoding.
func VerifyTrustEdge(e domain.TrustEdge, registeredKey []byte) bool {
	return Verify(canonical.TrustEdge(e), e.Signature, registeredKey)
}

// VerifyEndorsement checks an endorsement's signature over its canonical encoding.
func VerifyEndorsement(e domain.Endorsement, registeredKey []byte) bool {
	return Verify(canonical.Endorsement(e), e.Signature, registeredKey)
}

// SignEd25519 signs payload with an ed25519 private key. Used by write-side
// producers and tests; the engine itself only verifies.
func SignEd25519(payload []byte, key ed25519.PrivateKey, signedAt time.Time) domain.Signature {
	return domain.Signature{
		Algorithm: domain.AlgorithmEd25519,
		PublicKey: append([]byte(nil), key.Public().(ed25519.PublicKey)...),
		Bytes:     ed25519.Sign(key, payload),
		SignedAt:  signedAt,
	}
}

// SignSecp256k1 signs the SHA-256 digest of payload with a secp256k1 private
// key, producing a DER-encoded ECDSA signature.
func SignSecp256k1(payload []byte, key *secp256k1.PrivateKey, signedAt time.Time) domain.Signature {
	digest := sha256.Sum256(payload)
	sig := secpecdsa.Sign(key, digest[:])
	return domain.Signature{
		Algorithm: domain.AlgorithmSecp256k1,
		PublicKey: key.PubKey().SerializeCompressed(),
		Bytes:     sig.Serialize(),
		SignedAt:  signedAt,
	}
}
