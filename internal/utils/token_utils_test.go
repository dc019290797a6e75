package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, expiresAt, err := GenerateAccessToken("acc-1", "secret", time.Hour, "smartlens-test")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "smartlens-test", claims.Issuer)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	token, _, err := GenerateAccessToken("acc-1", "secret", time.Hour, "smartlens-test")
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	expired, _, err := GenerateAccessToken("acc-1", "secret", -time.Minute, "smartlens-test")
	require.NoError(t, err)
	_, err = ParseAccessToken(expired, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noSubject, _, err := GenerateAccessToken("", "secret", time.Hour, "smartlens-test")
	require.NoError(t, err)
	_, err = ParseAccessToken(noSubject, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
}

func TestCheckSecretHash(t *testing.T) {
	hash, err := HashSecret("admin-token")
	require.NoError(t, err)

	assert.True(t, CheckSecretHash("admin-token", hash))
	assert.False(t, CheckSecretHash("wrong", hash))
	assert.False(t, CheckSecretHash("", hash))
	assert.False(t, CheckSecretHash("admin-token", ""))
}
