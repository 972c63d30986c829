package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)
	userID := uuid.New()

	tok, err := svc.IssueAccessToken(userID, "test@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(tok.Token)

	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "credvault", claims.Issuer)
}

func TestJWTService_ValidateAccessToken_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)

	other, err := NewJWTService("other-secret", 15*time.Minute).IssueAccessToken(uuid.New(), "a@b.c")
	require.NoError(t, err)

	expired, err := NewJWTService("test-secret", time.Millisecond).IssueAccessToken(uuid.New(), "a@b.c")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "credvault"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt-token"},
		{"partial jwt", "eyJhbGciOiJIUzI1NiJ9."},
		{"wrong secret", other.Token},
		{"expired", expired.Token},
		{"wrong issuer", foreign},
		{"no user", anonymous},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tc.token)
			assert.Error(t, err)
		})
	}
}

func TestJWTService_TokensAreUnique(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)
	userID := uuid.New()

	a, err := svc.IssueAccessToken(userID, "test@example.com")
	require.NoError(t, err)
	b, err := svc.IssueAccessToken(userID, "test@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
}

func TestHashToken(t *testing.T) {
	hash1 := HashToken("session-token")
	hash2 := HashToken("session-token")

	assert.Equal(t, hash1, hash2)
	assert.Len(t, hash1, 64)
	assert.NotEqual(t, hash1, HashToken("different-token"))
}
