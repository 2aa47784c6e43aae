package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256TokenHasher(t *testing.T) {
	hasher := NewSHA256TokenHasher()

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, hasher.Hash("secret"), hasher.Hash("secret"))
	})

	t.Run("known digest", func(t *testing.T) {
		// sha256("abc")
		assert.Equal(t,
			"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
			hasher.Hash("abc"))
	})

	t.Run("distinct inputs give distinct digests", func(t *testing.T) {
		assert.NotEqual(t, hasher.Hash("secret"), hasher.Hash("secret "))
	})
}
