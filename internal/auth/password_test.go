package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, hasher.Verify("correct horse battery staple", hash))
	assert.False(t, hasher.Verify("wrong password", hash))
}

func TestPasswordHasher_SaltedOutput(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("password123")
	require.NoError(t, err)
	second, err := hasher.Hash("password123")
	require.NoError(t, err)

	// Same plaintext, different salt, different output.
	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("password123", first))
	assert.True(t, hasher.Verify("password123", second))
}

func TestPasswordHasher_MalformedHashVerifiesFalse(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	assert.False(t, hasher.Verify("anything", ""))
	assert.False(t, hasher.Verify("anything", "not-a-bcrypt-hash"))
	assert.False(t, hasher.Verify("anything", "$2b$garbage"))
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	hasher := NewPasswordHasher(999)
	assert.Equal(t, bcrypt.DefaultCost, hasher.cost)

	hasher = NewPasswordHasher(-1)
	assert.Equal(t, bcrypt.DefaultCost, hasher.cost)
}
