package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	accountID := uuid.New()

	token, err := svc.GenerateToken(accountID, "hospital", "h@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
	assert.Equal(t, "hospital", claims.Role)
	assert.Equal(t, "h@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).GenerateToken(uuid.New(), "admin", "a@example.com")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	token, err := NewJWTService("test-secret", time.Nanosecond).GenerateToken(uuid.New(), "donor_patient", "d@example.com")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = NewJWTService("test-secret", time.Nanosecond).ValidateToken(token)
	assert.Error(t, err)
}

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// a revocation whose ttl elapsed no longer blocks
	require.NoError(t, store.Revoke(ctx, "jti-2", -time.Second))
	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
