package store

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMemoryStore(t *testing.T) (*MemoryStore, uuid.UUID) {
	t.Helper()
	s := NewMemoryStore()
	userID := uuid.New()
	_, err := s.CreateVaultConfig(context.Background(), userID, "hash")
	require.NoError(t, err)
	return s, userID
}

func addCredential(t *testing.T, s *MemoryStore, userID uuid.UUID, provider providers.ID, enabled bool) *models.StoredCredential {
	t.Helper()
	cred, err := s.CreateCredential(context.Background(), &models.StoredCredential{
		UserID:     userID,
		Provider:   provider,
		Name:       string(provider),
		Ciphertext: []byte("ct"),
		Nonce:      []byte("nonce"),
		IsEnabled:  enabled,
	})
	require.NoError(t, err)
	return cred
}

func TestMemoryStore_VaultConfig(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	_, err := s.GetVaultConfig(ctx, userID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateVaultConfig(ctx, userID, "hash")
	require.NoError(t, err)

	_, err = s.CreateVaultConfig(ctx, userID, "other")
	assert.ErrorIs(t, err, ErrVaultExists)

	cfg, err := s.GetVaultConfig(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "hash", cfg.PasswordHash)
}

func TestMemoryStore_CreateCredential_RequiresVault(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.CreateCredential(context.Background(), &models.StoredCredential{UserID: uuid.New()})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CredentialsScopedToUser(t *testing.T) {
	s, userID := setupMemoryStore(t)
	ctx := context.Background()
	cred := addCredential(t, s, userID, providers.OpenAI, true)

	other := uuid.New()
	_, err := s.GetCredential(ctx, other, cred.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteCredential(ctx, other, cred.ID), ErrNotFound)

	got, err := s.GetCredential(ctx, userID, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s, userID := setupMemoryStore(t)
	ctx := context.Background()
	cred := addCredential(t, s, userID, providers.OpenAI, true)

	cred.Ciphertext[0] = 'X'

	got, err := s.GetCredential(ctx, userID, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("ct"), got.Ciphertext)
}

func TestMemoryStore_LatestEnabledByProvider(t *testing.T) {
	s, userID := setupMemoryStore(t)
	ctx := context.Background()
	base := time.Now()
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	older := addCredential(t, s, userID, providers.GitHub, true)
	newer := addCredential(t, s, userID, providers.GitHub, true)
	addCredential(t, s, userID, providers.GitHub, false)
	addCredential(t, s, userID, providers.OpenAI, true)

	got, err := s.LatestEnabledByProvider(ctx, userID, providers.GitHub)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	require.NoError(t, s.DeleteCredential(ctx, userID, newer.ID))
	got, err = s.LatestEnabledByProvider(ctx, userID, providers.GitHub)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = s.LatestEnabledByProvider(ctx, userID, providers.Dropbox)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateCredential_Versioning(t *testing.T) {
	s, userID := setupMemoryStore(t)
	ctx := context.Background()
	cred := addCredential(t, s, userID, providers.OpenAI, true)

	cred.Name = "renamed"
	updated, err := s.UpdateCredential(ctx, cred, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "renamed", updated.Name)

	_, err = s.UpdateCredential(ctx, cred, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	cred.ID = uuid.New()
	_, err = s.UpdateCredential(ctx, cred, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_RecordUsage(t *testing.T) {
	s, userID := setupMemoryStore(t)
	ctx := context.Background()
	a := addCredential(t, s, userID, providers.OpenAI, true)
	b := addCredential(t, s, userID, providers.GitHub, true)

	for i := 0; i < 3; i++ {
		_, err := s.RecordUsage(ctx, &models.UsageLogEntry{
			CredentialID: a.ID, UserID: userID, Provider: a.Provider, StatusCode: 200 + i,
		})
		require.NoError(t, err)
	}
	_, err := s.RecordUsage(ctx, &models.UsageLogEntry{CredentialID: b.ID, UserID: userID, Provider: b.Provider})
	require.NoError(t, err)

	got, err := s.GetCredential(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.UsageCount)
	assert.NotNil(t, got.LastUsedAt)

	all, err := s.ListUsageLogs(ctx, userID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, b.ID, all[0].CredentialID)

	onlyA, err := s.ListUsageLogs(ctx, userID, &a.ID, 2)
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, 202, onlyA[0].StatusCode)

	_, err = s.RecordUsage(ctx, &models.UsageLogEntry{CredentialID: uuid.New(), UserID: userID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UsageSurvivesDelete(t *testing.T) {
	s, userID := setupMemoryStore(t)
	ctx := context.Background()
	cred := addCredential(t, s, userID, providers.OpenAI, true)

	_, err := s.RecordUsage(ctx, &models.UsageLogEntry{CredentialID: cred.ID, UserID: userID})
	require.NoError(t, err)
	require.NoError(t, s.DeleteCredential(ctx, userID, cred.ID))

	entries, err := s.ListUsageLogs(ctx, userID, &cred.ID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMemoryStore_RotateMasterPassword(t *testing.T) {
	s, userID := setupMemoryStore(t)
	ctx := context.Background()
	addCredential(t, s, userID, providers.OpenAI, true)
	addCredential(t, s, userID, providers.GitHub, true)

	creds, err := s.ListCredentials(ctx, userID)
	require.NoError(t, err)
	for i := range creds {
		creds[i].Ciphertext = []byte("rotated")
	}

	require.NoError(t, s.RotateMasterPassword(ctx, userID, "new-hash", creds))

	cfg, err := s.GetVaultConfig(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", cfg.PasswordHash)

	after, err := s.ListCredentials(ctx, userID)
	require.NoError(t, err)
	for _, c := range after {
		assert.Equal(t, []byte("rotated"), c.Ciphertext)
		assert.Equal(t, 2, c.Version)
	}
}

func TestMemoryStore_RotateMasterPassword_AllOrNothing(t *testing.T) {
	s, userID := setupMemoryStore(t)
	ctx := context.Background()
	addCredential(t, s, userID, providers.OpenAI, true)
	stale := addCredential(t, s, userID, providers.GitHub, true)

	creds, err := s.ListCredentials(ctx, userID)
	require.NoError(t, err)
	for i := range creds {
		creds[i].Ciphertext = []byte("rotated")
	}

	stale.Name = "bumped"
	_, err = s.UpdateCredential(ctx, stale, 1)
	require.NoError(t, err)

	err = s.RotateMasterPassword(ctx, userID, "new-hash", creds)
	assert.ErrorIs(t, err, ErrVersionConflict)

	cfg, err := s.GetVaultConfig(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "hash", cfg.PasswordHash)

	after, err := s.ListCredentials(ctx, userID)
	require.NoError(t, err)
	for _, c := range after {
		assert.Equal(t, []byte("ct"), c.Ciphertext)
	}
}

func TestMemoryStore_RotateMasterPassword_MissingCredential(t *testing.T) {
	s, userID := setupMemoryStore(t)
	ctx := context.Background()
	addCredential(t, s, userID, providers.OpenAI, true)
	addCredential(t, s, userID, providers.GitHub, true)

	creds, err := s.ListCredentials(ctx, userID)
	require.NoError(t, err)

	err = s.RotateMasterPassword(ctx, userID, "new-hash", creds[:1])
	assert.ErrorIs(t, err, ErrVersionConflict)
}
