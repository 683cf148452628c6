package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// TokenGenerator hashes presented credentials for storage and compares them
// against stored hashes without leaking timing information.
type TokenGenerator interface {
	Hash(plainToken string) string
	Verify(plainToken, hash string) bool
}

type tokenGenerator struct{}

func NewTokenGenerator() TokenGenerator {
	return &tokenGenerator{}
}

func (g *tokenGenerator) Hash(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// Verify compares in constant time so mismatches take the same time
// regardless of where the hashes diverge.
func (g *tokenGenerator) Verify(plainToken, hash string) bool {
	computedHash := g.Hash(plainToken)
	return subtle.ConstantTimeCompare([]byte(computedHash), []byte(hash)) == 1
}
