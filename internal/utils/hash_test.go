package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.True(t, ValidTokenShape(token), "generated token %q should be URL-safe", token)
		assert.GreaterOrEqual(t, len(token), 32)
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}

func TestHashTokenIsSaltedButVerifiable(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	first, err := HashToken(token)
	require.NoError(t, err)
	second, err := HashToken(token)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "digests of the same token must differ")
	assert.True(t, VerifyToken(token, first))
	assert.True(t, VerifyToken(token, second))
	assert.False(t, VerifyToken("some-other-token", first))
}

func TestValidTokenShape(t *testing.T) {
	assert.True(t, ValidTokenShape("abc123_-XYZ"))
	assert.False(t, ValidTokenShape(""))
	assert.False(t, ValidTokenShape("has space"))
	assert.False(t, ValidTokenShape("semi;colon"))
	assert.False(t, ValidTokenShape("dotted.token"))

	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, ValidTokenShape(string(long)))
}

func TestPlausibleEmail(t *testing.T) {
	assert.True(t, PlausibleEmail("a@example.com"))
	assert.True(t, PlausibleEmail("first.last@sub.domain.org"))
	assert.False(t, PlausibleEmail(""))
	assert.False(t, PlausibleEmail("no-at-sign"))
	assert.False(t, PlausibleEmail("@example.com"))
	assert.False(t, PlausibleEmail("a@"))
	assert.False(t, PlausibleEmail("a@nodot"))
	assert.False(t, PlausibleEmail("spaced name@example.com"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@example.com", NormalizeEmail("  A@Example.COM "))
}
