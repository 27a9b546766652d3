package id

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	return randomHex(16)
}

// NewToken returns a 64-char hex token backed by 256 bits from crypto/rand.
// Tokens travel in unauthenticated owner links, so they must never be derived
// from anything guessable.
func NewToken() string {
	return randomHex(32)
}

// NewGroupID returns a random (v4) uuid shared by the advances of one request.
func NewGroupID() string {
	return uuid.NewString()
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("id: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
