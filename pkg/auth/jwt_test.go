package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

func TestGenerateJWT(t *testing.T) {
	token, err := GenerateJWT("demo-user-001", "demo@example.com", testSecret, 24)
	require.NoError(t, err)

	// header.payload.signature
	assert.Len(t, strings.Split(token, "."), 3)

	_, err = GenerateJWT("", "", testSecret, 24)
	assert.Error(t, err)
}

func TestValidateJWT(t *testing.T) {
	token, err := GenerateJWT("u-123", "rep@example.com", testSecret, 24)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-123", claims.UserID)
	assert.Equal(t, "u-123", claims.Subject)
	assert.Equal(t, "rep@example.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestValidateJWTInvalidToken(t *testing.T) {
	_, err := ValidateJWT("invalid.token.here", testSecret)
	assert.Error(t, err)

	_, err = ValidateJWT("", testSecret)
	assert.Error(t, err)
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("u-1", "", testSecret, 24)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "wrong-secret-key-minimum-32-characters-long")
	assert.Error(t, err)
}

func TestValidateJWTExpired(t *testing.T) {
	token, err := GenerateJWT("u-1", "", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.Error(t, err)
}

func TestValidateJWTWithoutUserID(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	token, err := GenerateJWT("u-7", "rep@example.com", testSecret, 1)
	require.NoError(t, err)

	id, err := Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "u-7", id)

	_, err = Subject("not-a-token")
	assert.Error(t, err)
}
