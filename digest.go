package contracts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm names a digest algorithm and doubles as the digest prefix tag.
type Algorithm string

const (
	// AlgorithmSHA256 is the default content digest.
	AlgorithmSHA256 Algorithm = "sha256"
	// AlgorithmBLAKE3 is an alternative 256-bit digest.
	AlgorithmBLAKE3 Algorithm = "blake3"
)

// Hasher computes content digests over the canonical serialization.
type Hasher struct {
	algorithm Algorithm
}

// NewHasher returns a hasher for algorithm. Unknown algorithms fall back to
// SHA-256 so that a stale configuration never blocks a save.
func NewHasher(algorithm Algorithm) Hasher {
	switch algorithm {
	case AlgorithmBLAKE3:
		return Hasher{algorithm: AlgorithmBLAKE3}
	default:
		return Hasher{algorithm: AlgorithmSHA256}
	}
}

// Algorithm reports the algorithm used by h.
func (h Hasher) Algorithm() Algorithm {
	if h.algorithm == "" {
		return AlgorithmSHA256
	}
	return h.algorithm
}

// Digest returns "<algorithm>:<lowercase hex>" over Canonicalize(doc).
func (h Hasher) Digest(doc any) (string, error) {
	canonical, err := CanonicalBytes(doc)
	if err != nil {
		return "", err
	}
	sum := h.newHash()
	sum.Write(canonical)
	return string(h.Algorithm()) + ":" + hex.EncodeToString(sum.Sum(nil)), nil
}

func (h Hasher) newHash() hash.Hash {
	if h.Algorithm() == AlgorithmBLAKE3 {
		return blake3.New()
	}
	return sha256.New()
}

// Digest computes the SHA-256 content digest of doc.
func Digest(doc any) (string, error) {
	return NewHasher(AlgorithmSHA256).Digest(doc)
}

// ParseDigest splits a tagged digest into its algorithm and hex payload.
func ParseDigest(digest string) (Algorithm, string, error) {
	tag, payload, ok := strings.Cut(digest, ":")
	if !ok {
		return "", "", fmt.Errorf("contracts: digest %q has no algorithm tag", digest)
	}
	algorithm := Algorithm(tag)
	if algorithm != AlgorithmSHA256 && algorithm != AlgorithmBLAKE3 {
		return "", "", fmt.Errorf("contracts: digest algorithm %q unsupported", tag)
	}
	if len(payload) != 64 {
		return "", "", fmt.Errorf("contracts: digest payload must be 64 hex chars, got %d", len(payload))
	}
	if _, err := hex.DecodeString(payload); err != nil || strings.ToLower(payload) != payload {
		return "", "", fmt.Errorf("contracts: digest payload %q is not lowercase hex", payload)
	}
	return algorithm, payload, nil
}

// VerifyDigest recomputes the digest of doc with the algorithm named by
// digest and reports whether both match.
func VerifyDigest(doc any, digest string) (bool, error) {
	algorithm, _, err := ParseDigest(digest)
	if err != nil {
		return false, err
	}
	actual, err := NewHasher(algorithm).Digest(doc)
	if err != nil {
		return false, err
	}
	return actual == digest, nil
}
