package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-at-least-32-characters!"

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT("user-1", "a@b.com", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@b.com", claims.Email)
}

func TestParseJWT_Failures(t *testing.T) {
	expired, err := GenerateJWT("user-1", "a@b.com", testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)

	valid, err := GenerateJWT("user-1", "a@b.com", testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(valid, "another-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ParseJWT("not-a-token", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{SupabaseAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := noSubject.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseJWT(signed, testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	wrongAudience := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"anon"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err = wrongAudience.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseJWT(signed, testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
