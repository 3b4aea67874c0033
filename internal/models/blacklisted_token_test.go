package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlacklistedToken(t *testing.T) {
	userID := uuid.New()
	expiry := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	claims := &CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		UserID: userID.String(),
	}

	token, err := NewBlacklistedToken(claims, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "jti-1", token.JTI)
	assert.Equal(t, userID, token.UserID)
	assert.True(t, token.ExpiresAt.Equal(expiry))
}

func TestNewBlacklistedToken_FallbackExpiry(t *testing.T) {
	claims := &CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "jti-2"},
		UserID:           uuid.NewString(),
	}

	token, err := NewBlacklistedToken(claims, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)
}

func TestNewBlacklistedToken_InvalidUserID(t *testing.T) {
	_, err := NewBlacklistedToken(&CustomClaims{UserID: "not-a-uuid"}, time.Hour)
	assert.Error(t, err)
}

func TestBlacklistedToken_BeforeCreate(t *testing.T) {
	token := &BlacklistedToken{JTI: "x"}
	require.NoError(t, token.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, token.ID)
	assert.False(t, token.BlacklistedAt.IsZero())
}
