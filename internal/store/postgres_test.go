package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dimitrije/credvault/internal/database"
	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var credentialCols = []string{
	"id", "user_id", "provider", "name", "ciphertext", "nonce", "created_at", "updated_at",
	"last_used_at", "usage_count", "is_enabled", "version", "metadata",
}

func setupPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewPostgresStore(db), mock
}

func credentialRow(id, userID uuid.UUID, version int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(credentialCols).AddRow(
		id, userID, "openai", "Work", []byte("ct"), []byte("nonce-12byte"), now, now,
		nil, int64(0), true, version, map[string]string{},
	)
}

func TestPostgresStore_GetVaultConfig(t *testing.T) {
	s, mock := setupPostgresStore(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM vault_config WHERE user_id`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "password_hash", "created_at", "updated_at"}).
			AddRow(userID, "abc123", now, now))

	cfg, err := s.GetVaultConfig(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, userID, cfg.UserID)
	assert.Equal(t, "abc123", cfg.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetVaultConfig_NotFound(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM vault_config WHERE user_id`).
		WithArgs(userID).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetVaultConfig(context.Background(), userID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateVaultConfig_Duplicate(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()

	mock.ExpectQuery(`INSERT INTO vault_config`).
		WithArgs(userID, "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.CreateVaultConfig(context.Background(), userID, "hash")

	assert.ErrorIs(t, err, ErrVaultExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateCredential(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()

	mock.ExpectQuery(`INSERT INTO vault_credentials`).
		WithArgs(userID, "openai", "Work", []byte("ct"), []byte("nonce-12byte"), true, map[string]string{}).
		WillReturnRows(credentialRow(credID, userID, 1))

	cred, err := s.CreateCredential(context.Background(), &models.StoredCredential{
		UserID:     userID,
		Provider:   providers.OpenAI,
		Name:       "Work",
		Ciphertext: []byte("ct"),
		Nonce:      []byte("nonce-12byte"),
		IsEnabled:  true,
	})

	require.NoError(t, err)
	assert.Equal(t, credID, cred.ID)
	assert.Equal(t, providers.OpenAI, cred.Provider)
	assert.Equal(t, 1, cred.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCredential_NotFound(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM vault_credentials WHERE id`).
		WithArgs(credID, userID).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCredential(context.Background(), userID, credID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCredentials(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(credentialCols).
		AddRow(uuid.New(), userID, "openai", "A", []byte("c1"), []byte("n1"), now, now, nil, int64(2), true, 1, map[string]string{}).
		AddRow(uuid.New(), userID, "github", "B", []byte("c2"), []byte("n2"), now, now, nil, int64(0), false, 3, map[string]string{"env": "ci"})

	mock.ExpectQuery(`SELECT .+ FROM vault_credentials WHERE user_id`).
		WithArgs(userID).
		WillReturnRows(rows)

	creds, err := s.ListCredentials(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, providers.GitHub, creds[1].Provider)
	assert.Equal(t, "ci", creds[1].Metadata["env"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestEnabledByProvider(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM vault_credentials WHERE user_id = \$1 AND provider = \$2 AND is_enabled`).
		WithArgs(userID, "openai").
		WillReturnRows(credentialRow(credID, userID, 1))

	cred, err := s.LatestEnabledByProvider(context.Background(), userID, providers.OpenAI)

	require.NoError(t, err)
	assert.Equal(t, credID, cred.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCredential(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()

	mock.ExpectQuery(`UPDATE vault_credentials`).
		WithArgs("Work", []byte("ct"), []byte("nonce-12byte"), true, map[string]string{}, credID, userID, 1).
		WillReturnRows(credentialRow(credID, userID, 2))

	cred, err := s.UpdateCredential(context.Background(), &models.StoredCredential{
		ID: credID, UserID: userID, Name: "Work",
		Ciphertext: []byte("ct"), Nonce: []byte("nonce-12byte"), IsEnabled: true,
	}, 1)

	require.NoError(t, err)
	assert.Equal(t, 2, cred.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCredential_VersionConflict(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()

	mock.ExpectQuery(`UPDATE vault_credentials`).
		WithArgs("Work", []byte("ct"), []byte("n"), true, map[string]string{}, credID, userID, 1).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT version FROM vault_credentials`).
		WithArgs(credID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(3))

	_, err := s.UpdateCredential(context.Background(), &models.StoredCredential{
		ID: credID, UserID: userID, Name: "Work", Ciphertext: []byte("ct"), Nonce: []byte("n"), IsEnabled: true,
	}, 1)

	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCredential_Missing(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()

	mock.ExpectQuery(`UPDATE vault_credentials`).
		WithArgs("Work", []byte("ct"), []byte("n"), false, map[string]string{}, credID, userID, 1).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT version FROM vault_credentials`).
		WithArgs(credID, userID).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.UpdateCredential(context.Background(), &models.StoredCredential{
		ID: credID, UserID: userID, Name: "Work", Ciphertext: []byte("ct"), Nonce: []byte("n"),
	}, 1)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteCredential(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()

	mock.ExpectExec(`DELETE FROM vault_credentials`).
		WithArgs(credID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.DeleteCredential(context.Background(), userID, credID))

	mock.ExpectExec(`DELETE FROM vault_credentials`).
		WithArgs(credID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, s.DeleteCredential(context.Background(), userID, credID), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordUsage(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()
	logID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE vault_credentials SET usage_count`).
		WithArgs(credID, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO vault_usage_logs`).
		WithArgs(credID, userID, "openai", "/v1/models", "GET", 200, int64(120), map[string]string{}).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "credential_id", "user_id", "provider", "endpoint", "method", "status_code",
			"response_time_ms", "timestamp", "metadata",
		}).AddRow(logID, credID, userID, "openai", "/v1/models", "GET", 200, int64(120), now, map[string]string{}))
	mock.ExpectCommit()

	entry, err := s.RecordUsage(context.Background(), &models.UsageLogEntry{
		CredentialID:   credID,
		UserID:         userID,
		Provider:       providers.OpenAI,
		Endpoint:       "/v1/models",
		Method:         "GET",
		StatusCode:     200,
		ResponseTimeMs: 120,
	})

	require.NoError(t, err)
	assert.Equal(t, logID, entry.ID)
	assert.Equal(t, providers.OpenAI, entry.Provider)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordUsage_MissingCredential(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE vault_credentials SET usage_count`).
		WithArgs(credID, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := s.RecordUsage(context.Background(), &models.UsageLogEntry{CredentialID: credID, UserID: userID})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListUsageLogs_FilterAndLimit(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	credID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM vault_usage_logs WHERE user_id = \$1 AND credential_id = \$2 ORDER BY timestamp DESC LIMIT \$3`).
		WithArgs(userID, credID, 10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "credential_id", "user_id", "provider", "endpoint", "method", "status_code",
			"response_time_ms", "timestamp", "metadata",
		}).AddRow(uuid.New(), credID, userID, "github", "/user", "GET", 200, int64(40), time.Now(), map[string]string{}))

	entries, err := s.ListUsageLogs(context.Background(), userID, &credID, 10)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, providers.GitHub, entries[0].Provider)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func rotationCreds(userID uuid.UUID, n int) []models.StoredCredential {
	creds := make([]models.StoredCredential, n)
	for i := range creds {
		creds[i] = models.StoredCredential{
			ID:         uuid.New(),
			UserID:     userID,
			Ciphertext: []byte{byte(i)},
			Nonce:      []byte{byte(i), 1},
			Version:    i + 1,
		}
	}
	return creds
}

func expectRotationPreamble(mock pgxmock.PgxPoolIface, userID uuid.UUID, count int) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT password_hash FROM vault_config WHERE user_id = \$1 FOR UPDATE`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"password_hash"}).AddRow("old"))
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(count))
}

func TestPostgresStore_RotateMasterPassword(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	creds := rotationCreds(userID, 3)

	expectRotationPreamble(mock, userID, 3)
	for _, c := range creds {
		mock.ExpectExec(`UPDATE vault_credentials SET ciphertext`).
			WithArgs(c.Ciphertext, c.Nonce, c.ID, userID, c.Version).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	}
	mock.ExpectExec(`UPDATE vault_config SET password_hash`).
		WithArgs("new", userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.RotateMasterPassword(context.Background(), userID, "new", creds))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RotateMasterPassword_RollsBackOnFailure(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	creds := rotationCreds(userID, 3)

	expectRotationPreamble(mock, userID, 3)
	mock.ExpectExec(`UPDATE vault_credentials SET ciphertext`).
		WithArgs(creds[0].Ciphertext, creds[0].Nonce, creds[0].ID, userID, creds[0].Version).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE vault_credentials SET ciphertext`).
		WithArgs(creds[1].Ciphertext, creds[1].Nonce, creds[1].ID, userID, creds[1].Version).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.RotateMasterPassword(context.Background(), userID, "new", creds)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RotateMasterPassword_StaleVersion(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	creds := rotationCreds(userID, 2)

	expectRotationPreamble(mock, userID, 2)
	mock.ExpectExec(`UPDATE vault_credentials SET ciphertext`).
		WithArgs(creds[0].Ciphertext, creds[0].Nonce, creds[0].ID, userID, creds[0].Version).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := s.RotateMasterPassword(context.Background(), userID, "new", creds)

	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RotateMasterPassword_CredentialAddedConcurrently(t *testing.T) {
	s, mock := setupPostgresStore(t)
	userID := uuid.New()
	creds := rotationCreds(userID, 2)

	expectRotationPreamble(mock, userID, 3)
	mock.ExpectRollback()

	err := s.RotateMasterPassword(context.Background(), userID, "new", creds)

	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
