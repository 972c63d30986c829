package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/credvault/internal/database"
	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ CredentialStore = (*PostgresStore)(nil)

const credentialColumns = `id, user_id, provider, name, ciphertext, nonce, created_at, updated_at,
		last_used_at, usage_count, is_enabled, version, metadata`

type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetVaultConfig(ctx context.Context, userID uuid.UUID) (*models.VaultConfig, error) {
	var cfg models.VaultConfig
	err := s.db.Pool.QueryRow(ctx, `
		SELECT user_id, password_hash, created_at, updated_at
		FROM vault_config
		WHERE user_id = $1
	`, userID).Scan(&cfg.UserID, &cfg.PasswordHash, &cfg.CreatedAt, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vault config: %w", err)
	}
	return &cfg, nil
}

func (s *PostgresStore) CreateVaultConfig(ctx context.Context, userID uuid.UUID, passwordHash string) (*models.VaultConfig, error) {
	var cfg models.VaultConfig
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO vault_config (user_id, password_hash)
		VALUES ($1, $2)
		RETURNING user_id, password_hash, created_at, updated_at
	`, userID, passwordHash).Scan(&cfg.UserID, &cfg.PasswordHash, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrVaultExists
		}
		return nil, fmt.Errorf("create vault config: %w", err)
	}
	return &cfg, nil
}

func (s *PostgresStore) CreateCredential(ctx context.Context, cred *models.StoredCredential) (*models.StoredCredential, error) {
	row := s.db.Pool.QueryRow(ctx, `
		INSERT INTO vault_credentials (user_id, provider, name, ciphertext, nonce, is_enabled, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+credentialColumns,
		cred.UserID, string(cred.Provider), cred.Name, cred.Ciphertext, cred.Nonce, cred.IsEnabled,
		cloneMetadata(cred.Metadata),
	)
	created, err := scanCredential(row)
	if err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetCredential(ctx context.Context, userID, id uuid.UUID) (*models.StoredCredential, error) {
	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+credentialColumns+`
		FROM vault_credentials
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	cred, err := scanCredential(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) ListCredentials(ctx context.Context, userID uuid.UUID) ([]models.StoredCredential, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+credentialColumns+`
		FROM vault_credentials
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []models.StoredCredential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return creds, nil
}

func (s *PostgresStore) LatestEnabledByProvider(ctx context.Context, userID uuid.UUID, provider providers.ID) (*models.StoredCredential, error) {
	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+credentialColumns+`
		FROM vault_credentials
		WHERE user_id = $1 AND provider = $2 AND is_enabled = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, string(provider))
	cred, err := scanCredential(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential by provider: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) UpdateCredential(ctx context.Context, cred *models.StoredCredential, expectedVersion int) (*models.StoredCredential, error) {
	row := s.db.Pool.QueryRow(ctx, `
		UPDATE vault_credentials
		SET name = $1, ciphertext = $2, nonce = $3, is_enabled = $4, metadata = $5,
			version = version + 1, updated_at = NOW()
		WHERE id = $6 AND user_id = $7 AND version = $8
		RETURNING `+credentialColumns,
		cred.Name, cred.Ciphertext, cred.Nonce, cred.IsEnabled, cloneMetadata(cred.Metadata),
		cred.ID, cred.UserID, expectedVersion,
	)
	updated, err := scanCredential(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.checkVersionConflict(ctx, cred.UserID, cred.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update credential: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) checkVersionConflict(ctx context.Context, userID, id uuid.UUID) error {
	var currentVersion int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT version FROM vault_credentials WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&currentVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check credential version: %w", err)
	}
	return ErrVersionConflict
}

func (s *PostgresStore) DeleteCredential(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM vault_credentials WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RecordUsage(ctx context.Context, entry *models.UsageLogEntry) (*models.UsageLogEntry, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE vault_credentials
		SET usage_count = usage_count + 1, last_used_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, entry.CredentialID, entry.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to bump usage count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	var logged models.UsageLogEntry
	var provider string
	err = tx.QueryRow(ctx, `
		INSERT INTO vault_usage_logs (credential_id, user_id, provider, endpoint, method, status_code, response_time_ms, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, credential_id, user_id, provider, endpoint, method, status_code, response_time_ms, timestamp, metadata
	`, entry.CredentialID, entry.UserID, string(entry.Provider), entry.Endpoint, entry.Method,
		entry.StatusCode, entry.ResponseTimeMs, cloneMetadata(entry.Metadata),
	).Scan(
		&logged.ID, &logged.CredentialID, &logged.UserID, &provider, &logged.Endpoint,
		&logged.Method, &logged.StatusCode, &logged.ResponseTimeMs, &logged.Timestamp, &logged.Metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert usage log: %w", err)
	}
	logged.Provider = providers.ID(provider)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &logged, nil
}

func (s *PostgresStore) ListUsageLogs(ctx context.Context, userID uuid.UUID, credentialID *uuid.UUID, limit int) ([]models.UsageLogEntry, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, credential_id, user_id, provider, endpoint, method, status_code, response_time_ms, timestamp, metadata
		FROM vault_usage_logs
		WHERE user_id = $1`)
	args := []any{userID}
	if credentialID != nil {
		args = append(args, *credentialID)
		fmt.Fprintf(&sb, " AND credential_id = $%d", len(args))
	}
	sb.WriteString(" ORDER BY timestamp DESC")
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.db.Pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	defer rows.Close()

	var entries []models.UsageLogEntry
	for rows.Next() {
		var e models.UsageLogEntry
		var provider string
		if err := rows.Scan(
			&e.ID, &e.CredentialID, &e.UserID, &provider, &e.Endpoint, &e.Method,
			&e.StatusCode, &e.ResponseTimeMs, &e.Timestamp, &e.Metadata,
		); err != nil {
			return nil, fmt.Errorf("scan usage log: %w", err)
		}
		e.Provider = providers.ID(provider)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage logs: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) RotateMasterPassword(ctx context.Context, userID uuid.UUID, passwordHash string, creds []models.StoredCredential) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentHash string
	err = tx.QueryRow(ctx, `
		SELECT password_hash FROM vault_config WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&currentHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock vault config: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM vault_credentials WHERE user_id = $1
	`, userID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count credentials: %w", err)
	}
	if count != len(creds) {
		return ErrVersionConflict
	}

	for _, cred := range creds {
		result, err := tx.Exec(ctx, `
			UPDATE vault_credentials
			SET ciphertext = $1, nonce = $2, version = version + 1, updated_at = NOW()
			WHERE id = $3 AND user_id = $4 AND version = $5
		`, cred.Ciphertext, cred.Nonce, cred.ID, userID, cred.Version)
		if err != nil {
			return fmt.Errorf("failed to re-encrypt credential %s: %w", cred.ID, err)
		}
		if result.RowsAffected() != 1 {
			return ErrVersionConflict
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE vault_config SET password_hash = $1, updated_at = NOW() WHERE user_id = $2
	`, passwordHash, userID); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanCredential(row pgx.Row) (*models.StoredCredential, error) {
	var cred models.StoredCredential
	var provider string
	if err := row.Scan(
		&cred.ID, &cred.UserID, &provider, &cred.Name, &cred.Ciphertext, &cred.Nonce,
		&cred.CreatedAt, &cred.UpdatedAt, &cred.LastUsedAt, &cred.UsageCount,
		&cred.IsEnabled, &cred.Version, &cred.Metadata,
	); err != nil {
		return nil, err
	}
	cred.Provider = providers.ID(provider)
	return &cred, nil
}
