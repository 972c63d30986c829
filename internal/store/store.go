// Package store persists encrypted vault records. Implementations never see
// plaintext credential fields.
package store

import (
	"context"
	"errors"

	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVaultExists     = errors.New("vault already exists for this user")
	ErrVersionConflict = errors.New("version conflict: credential has been modified")
)

// CredentialStore mirrors the three record families of a vault: config,
// credentials and usage logs.
type CredentialStore interface {
	GetVaultConfig(ctx context.Context, userID uuid.UUID) (*models.VaultConfig, error)
	CreateVaultConfig(ctx context.Context, userID uuid.UUID, passwordHash string) (*models.VaultConfig, error)

	CreateCredential(ctx context.Context, cred *models.StoredCredential) (*models.StoredCredential, error)
	GetCredential(ctx context.Context, userID, id uuid.UUID) (*models.StoredCredential, error)
	ListCredentials(ctx context.Context, userID uuid.UUID) ([]models.StoredCredential, error)
	LatestEnabledByProvider(ctx context.Context, userID uuid.UUID, provider providers.ID) (*models.StoredCredential, error)
	// UpdateCredential writes name, ciphertext, nonce, enabled flag and
	// metadata only if the stored version equals expectedVersion.
	UpdateCredential(ctx context.Context, cred *models.StoredCredential, expectedVersion int) (*models.StoredCredential, error)
	DeleteCredential(ctx context.Context, userID, id uuid.UUID) error

	// RecordUsage appends entry and bumps the credential's usage counter and
	// last_used_at as one unit.
	RecordUsage(ctx context.Context, entry *models.UsageLogEntry) (*models.UsageLogEntry, error)
	// ListUsageLogs returns newest first. A nil credentialID lists every entry
	// of the user; limit <= 0 means no limit.
	ListUsageLogs(ctx context.Context, userID uuid.UUID, credentialID *uuid.UUID, limit int) ([]models.UsageLogEntry, error)

	// RotateMasterPassword replaces the ciphertext and nonce of every listed
	// credential and the password hash atomically. creds must cover every
	// credential of the user at the versions they were read; otherwise nothing
	// is written and ErrVersionConflict is returned.
	RotateMasterPassword(ctx context.Context, userID uuid.UUID, passwordHash string, creds []models.StoredCredential) error
}

func cloneMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
