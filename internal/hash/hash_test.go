package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewHasher_RejectsOutOfRangeCost(t *testing.T) {
	t.Parallel()

	_, err := NewHasher(bcrypt.MinCost - 1)
	require.Error(t, err)
	_, err = NewHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)

	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, h.Cost)
}

func TestHashPassword_SaltedAndVerifiable(t *testing.T) {
	t.Parallel()

	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	first, err := h.HashPassword("s3cret")
	require.NoError(t, err)
	second, err := h.HashPassword("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each hash carries its own salt")
	assert.NotContains(t, first, "s3cret")
	assert.True(t, strings.HasPrefix(first, "$2a$"))

	assert.True(t, h.CheckPassword(first, "s3cret"))
	assert.True(t, h.CheckPassword(second, "s3cret"))
	assert.False(t, h.CheckPassword(first, "s3cre"))
	assert.False(t, h.CheckPassword(first, "s3cret "))
	assert.False(t, h.CheckPassword(first, ""))
}

func TestHashPassword_Empty(t *testing.T) {
	t.Parallel()

	h := &Hasher{Cost: bcrypt.MinCost}
	_, err := h.HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestCost_ReadsEmbeddedWorkFactor(t *testing.T) {
	t.Parallel()

	h := &Hasher{Cost: bcrypt.MinCost + 1}
	stored, err := h.HashPassword("pw")
	require.NoError(t, err)

	cost, err := Cost(stored)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)

	// A hasher with a different cost still verifies older hashes.
	other := &Hasher{Cost: bcrypt.MinCost}
	assert.True(t, other.CheckPassword(stored, "pw"))
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	t.Parallel()

	h := &Hasher{Cost: bcrypt.MinCost}
	assert.False(t, h.CheckPassword("not-a-bcrypt-hash", "pw"))
}
