package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestHashPassword_NeverStoresPlaintext(t *testing.T) {
	for _, pw := range []string{"password123", "s3cret!", "correct horse battery staple"} {
		hash, err := HashPassword(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)
		assert.True(t, CheckPassword(pw, hash))
		assert.False(t, CheckPassword(pw+"x", hash))
		assert.False(t, CheckPassword("", hash))
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("password123", "not-a-hash"))
}

func TestAccessToken_RoundTrip(t *testing.T) {
	tok, err := NewAccessToken("u-1", "a@example.com", "admin", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestParse_Expired(t *testing.T) {
	tok, err := NewAccessToken("u-1", "a@example.com", "admin", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(tok, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := NewAccessToken("u-1", "a@example.com", "admin", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok, "other")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}
