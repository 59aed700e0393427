package utils

import (
	"testing"
	"time"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := []byte("super-secret")

	tok, err := GenerateToken("user-123", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.NotEmpty(t, claims.ID, "token id is needed for revocation")
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestValidateToken_Failures(t *testing.T) {
	secret := []byte("secret")

	expired, err := GenerateToken("u1", secret, -time.Minute)
	require.NoError(t, err)
	other, err := GenerateToken("u1", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":      expired,
		"wrong secret": other,
		"malformed":    "not.a.jwt",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(tok, secret)
			assert.ErrorIs(t, err, apierr.ErrUnauthorized)
		})
	}
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	_, err := GenerateToken("u1", nil, time.Hour)
	assert.Error(t, err)
}
