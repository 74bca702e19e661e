package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() JWTManager {
	return JWTManager{
		Secret:          []byte("test-secret"),
		Issuer:          "rerack-test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()
	now := time.Now()

	token, expiresAt, err := m.IssueAccessToken("user-1", "a@example.com", "user", true, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(15*time.Minute), expiresAt, time.Second)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.True(t, claims.Fresh)
}

func TestAccessTokenFreshFlag(t *testing.T) {
	m := testManager()

	token, _, err := m.IssueAccessToken("user-1", "a@example.com", "user", false, time.Now())
	require.NoError(t, err)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.False(t, claims.Fresh)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := testManager()
	now := time.Now()

	token, issuedAt, expiresAt, err := m.IssueRefreshToken("user-1", now)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), issuedAt)
	assert.WithinDuration(t, now.Add(24*time.Hour), expiresAt, time.Second)

	claims, err := m.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, issuedAt, claims.IssuedAt.Unix())
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m := testManager()
	now := time.Now()

	accessToken, _, err := m.IssueAccessToken("user-1", "a@example.com", "user", true, now)
	require.NoError(t, err)
	refreshToken, _, _, err := m.IssueRefreshToken("user-1", now)
	require.NoError(t, err)

	_, err = m.ParseRefreshToken(accessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.ParseAccessToken(refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := testManager()
	other := testManager()
	other.Secret = []byte("different-secret")

	token, _, err := m.IssueAccessToken("user-1", "a@example.com", "user", true, time.Now())
	require.NoError(t, err)

	_, err = other.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	m := testManager()

	_, err := m.ParseAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.ParseRefreshToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// Expiry is reported distinctly from other parse failures so callers
// can answer with "no longer valid" instead of "malformed".
func TestExpiredTokensReportExpiry(t *testing.T) {
	m := testManager()
	m.AccessTokenTTL = time.Second
	m.RefreshTokenTTL = time.Second

	accessToken, _, err := m.IssueAccessToken("user-1", "a@example.com", "user", true, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = m.ParseAccessToken(accessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.NotErrorIs(t, err, ErrInvalidToken)

	refreshToken, _, _, err := m.IssueRefreshToken("user-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = m.ParseRefreshToken(refreshToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
