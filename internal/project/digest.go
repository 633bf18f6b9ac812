package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a sha256 content digest.
type Digest [32]byte

// DigestOf hashes raw content.
func DigestOf(content []byte) Digest {
	return sha256.Sum256(content)
}

// String renders the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool {
	var z Digest
	return d == z
}

// Combine hashes this digest together with its dependencies' digests.
// Deps must already be in deterministic order.
func (d Digest) Combine(deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(d[:])
	for _, dep := range deps {
		_, _ = h.Write(dep[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
