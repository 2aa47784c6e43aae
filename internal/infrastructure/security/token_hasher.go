package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rivon0507/courier-back/internal/domain/service"
)

// sha256TokenHasher stores refresh-token secrets as hex-encoded SHA-256
// digests. Deterministic so the digest doubles as the lookup key; the raw
// secret is never persisted.
type sha256TokenHasher struct{}

// NewSHA256TokenHasher creates the production TokenHasher.
func NewSHA256TokenHasher() service.TokenHasher {
	return sha256TokenHasher{}
}

func (sha256TokenHasher) Hash(rawSecret string) string {
	sum := sha256.Sum256([]byte(rawSecret))
	return hex.EncodeToString(sum[:])
}
