package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "memory-backend/pkg/errors"
)

const testSecret = "test-jwt-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHS256Verifier(t *testing.T) {
	ctx := context.Background()
	verifier, err := NewHS256Verifier(testSecret)
	require.NoError(t, err)

	t.Run("ValidToken", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":   "user-123",
			"email": "user@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		user, err := verifier.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.UserID)
		assert.Equal(t, "user@example.com", user.Email)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := verifier.Verify(ctx, token)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsUnauthorized(err))
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := verifier.Verify(ctx, token)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsUnauthorized(err))
	})

	t.Run("MissingSubject", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := verifier.Verify(ctx, token)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsUnauthorized(err))
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := verifier.Verify(ctx, "not.a.token")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsUnauthorized(err))
	})

	t.Run("EmptySecretRejected", func(t *testing.T) {
		_, err := NewHS256Verifier("")
		assert.Error(t, err)
	})
}
