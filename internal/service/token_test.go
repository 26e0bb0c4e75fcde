package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

const testSecret = "test-secret-0123456789abcdef012345"

func TestTokenManager_SessionRoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 15*time.Minute)
	userID := uuid.New()

	token, err := tm.IssueSession(userID)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.False(t, claims.IsReset())
	assert.Empty(t, claims.Type)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenManager_ResetTokenCarriesType(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 15*time.Minute)

	token, err := tm.IssueResetToken(uuid.New())
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.True(t, claims.IsReset())
	assert.Equal(t, "reset", claims.Type)

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 15*time.Minute, ttl)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 15*time.Minute)
	issued := time.Now()
	tm.now = func() time.Time { return issued }

	token, err := tm.IssueResetToken(uuid.New())
	require.NoError(t, err)

	tm.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, apperror.ErrTokenExpired)
}

func TestTokenManager_Invalid(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 15*time.Minute)
	other := NewTokenManager("another-secret-0123456789abcdef0123", time.Hour, 15*time.Minute)

	foreign, err := other.IssueSession(uuid.New())
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
	}{
		{name: "мусор", token: "not-a-jwt"},
		{name: "чужая подпись", token: foreign},
		{name: "пустая строка", token: ""},
		{name: "алгоритм none", token: noneToken(t)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tm.Verify(tc.token)
			assert.ErrorIs(t, err, apperror.ErrTokenInvalid)
		})
	}
}

func noneToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}
