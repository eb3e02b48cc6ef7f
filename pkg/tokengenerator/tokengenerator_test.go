package tokengenerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	huberrors "github.com/corpident/identity-hub/pkg/errors"
)

func TestGenerateAndParseToken(t *testing.T) {
	gen := NewJwtTokenGenerator("test-secret", "identity-hub", "identity-hub")

	token, expiry, err := gen.GenerateToken("user-123", 5*time.Minute, map[string]interface{}{
		"username": "jdoe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().UTC().Add(5*time.Minute), expiry, time.Second)

	claims, err := gen.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims["sub"])
	assert.Equal(t, "jdoe", claims["username"])
	assert.Equal(t, "identity-hub", claims["iss"])
}

func TestParseToken_Expired(t *testing.T) {
	gen := NewJwtTokenGenerator("test-secret", "identity-hub", "identity-hub")

	token, _, err := gen.GenerateToken("user-123", -5*time.Minute, nil)
	require.NoError(t, err)

	_, err = gen.ParseToken(token)
	require.Error(t, err)
	assert.True(t, huberrors.IsCode(err, huberrors.ErrCodeTokenExpired))
}

func TestParseToken_BadSignature(t *testing.T) {
	gen := NewJwtTokenGenerator("test-secret", "identity-hub", "identity-hub")
	other := NewJwtTokenGenerator("other-secret", "identity-hub", "identity-hub")

	token, _, err := gen.GenerateToken("user-123", 5*time.Minute, nil)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	require.Error(t, err)
	assert.True(t, huberrors.IsCode(err, huberrors.ErrCodeTokenBadSignature))
}

func TestParseToken_Malformed(t *testing.T) {
	gen := NewJwtTokenGenerator("test-secret", "identity-hub", "identity-hub")

	_, err := gen.ParseToken("not-a-jwt")
	require.Error(t, err)
	assert.True(t, huberrors.IsCode(err, huberrors.ErrCodeTokenMalformed))
}

func TestJwtService_TokenTypes(t *testing.T) {
	gen := NewJwtTokenGenerator("test-secret", "identity-hub", "identity-hub")
	svc := NewJwtService(
		WithDefaultTokenGenerator(gen),
		WithTempTokenExpiry(10*time.Minute),
		WithAccessTokenExpiry(8*time.Hour),
	)

	tempToken, tempExpiry, err := svc.GenerateToken(TEMP_TOKEN_NAME, "user-123", nil)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(10*time.Minute), tempExpiry, time.Second)

	claims, err := svc.ParseToken(TEMP_TOKEN_NAME, tempToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeTemp, claims[TokenTypeClaim])

	accessToken, accessExpiry, err := svc.GenerateToken(ACCESS_TOKEN_NAME, "user-123", map[string]interface{}{
		"company_code": "ACME",
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(8*time.Hour), accessExpiry, time.Second)

	claims, err = svc.ParseToken(ACCESS_TOKEN_NAME, accessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeScoped, claims[TokenTypeClaim])
	assert.Equal(t, "ACME", claims["company_code"])
}
