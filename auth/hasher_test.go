package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, p := range []string{"Secret@123", "a", "pässwörd!1", "with space 1$"} {
		hash, err := h.Hash(p)
		require.NoError(t, err)

		assert.NotEqual(t, p, hash)
		assert.True(t, h.Verify(p, hash), p)
		assert.False(t, h.Verify(p+"x", hash), p)
	}
}

func TestBcryptHasher_FreshSaltPerCall(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	h1, err := h.Hash("Secret@123")
	require.NoError(t, err)
	h2, err := h.Hash("Secret@123")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestBcryptHasher_MalformedHashNeverMatches(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("Secret@123", ""))
	assert.False(t, h.Verify("Secret@123", "not-a-hash"))
	assert.False(t, h.Verify("Secret@123", "$2a$04$short"))
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost).Hash("")

	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestNewBcryptHasher_InvalidCostUsesDefault(t *testing.T) {
	h := NewBcryptHasher(100).(*bcryptHasher)

	assert.Equal(t, DefaultHashCost, h.cost)
}
