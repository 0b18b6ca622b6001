// Package cryptox holds the server's one-way credential primitives: password
// hashing and session marker generation.
package cryptox

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt.
//
// bcrypt only looks at the first 72 bytes of its input, so the password is
// first condensed with SHA-256 and base64-encoded (44 bytes). Any password
// length is therefore accepted and every byte of it counts.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into bcrypt's valid range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the effective work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt digest in its standard "$2a$..." text form.
func (h *BcryptHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(prehash(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether password matches digest. A malformed digest is a
// mismatch, not an error.
func (h *BcryptHasher) Verify(password, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), prehash(password)) == nil
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

var _ PasswordHasher = (*BcryptHasher)(nil)
