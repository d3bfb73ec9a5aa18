package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret-key"
	testIssuer = "https://auth.example.com"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, testIssuer)

	token, err := svc.GenerateToken("provider-123", "alice@example.com", "Alice", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "provider-123", claims.ProviderUserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.DisplayName)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("other-secret", testIssuer).GenerateToken("provider-123", "a@example.com", "A", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, testIssuer).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongIssuer(t *testing.T) {
	token, err := NewTokenService(testSecret, "https://other.example.com").GenerateToken("provider-123", "a@example.com", "A", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, testIssuer).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewTokenService(testSecret, testIssuer)
	token, err := svc.GenerateToken("provider-123", "a@example.com", "A", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateTokenRejectsMissingSubject(t *testing.T) {
	svc := NewTokenService(testSecret, testIssuer)
	token, err := svc.GenerateToken("", "a@example.com", "A", time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromRequest(t *testing.T) {
	svc := NewTokenService(testSecret, testIssuer)
	token, err := svc.GenerateToken("provider-123", "a@example.com", "A", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/rotations", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	claims, err := svc.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "provider-123", claims.ProviderUserID)

	r = httptest.NewRequest("GET", "/api/rotations", nil)
	_, err = svc.FromRequest(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r = httptest.NewRequest("GET", "/api/rotations", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	_, err = svc.FromRequest(r)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
