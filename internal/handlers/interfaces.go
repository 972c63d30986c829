package handlers

import (
	"context"

	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/google/uuid"
)

// VaultServiceInterface defines the methods used by handlers from VaultService
type VaultServiceInterface interface {
	Unlock(ctx context.Context, userID uuid.UUID, password string) (*services.Session, error)
	Lock(sess *services.Session)
	StoreCredential(ctx context.Context, sess *services.Session, in services.NewCredential) (*models.CredentialInfo, error)
	GetCredential(ctx context.Context, sess *services.Session, id uuid.UUID) (*models.DecryptedCredential, error)
	GetCredentialByProvider(ctx context.Context, sess *services.Session, provider providers.ID) (*models.DecryptedCredential, error)
	ListCredentials(ctx context.Context, sess *services.Session) ([]models.CredentialInfo, error)
	UpdateCredential(ctx context.Context, sess *services.Session, id uuid.UUID, upd services.CredentialUpdate) (*models.CredentialInfo, error)
	DeleteCredential(ctx context.Context, sess *services.Session, id uuid.UUID) error
	LogUsage(ctx context.Context, sess *services.Session, credentialID uuid.UUID, rec services.UsageRecord) (*models.UsageLogEntry, error)
	ListUsage(ctx context.Context, sess *services.Session, credentialID *uuid.UUID, limit int) ([]models.UsageLogEntry, error)
	GetStats(ctx context.Context, sess *services.Session) (*models.VaultStats, error)
	TestCredential(ctx context.Context, sess *services.Session, id uuid.UUID) (*models.TestResult, error)
	ChangeMasterPassword(ctx context.Context, sess *services.Session, oldPassword, newPassword string) error
	ExportBackup(ctx context.Context, sess *services.Session) (*models.BackupBlob, error)
	ImportBackup(ctx context.Context, sess *services.Session, blob *models.BackupBlob) (int, error)
}

// SessionStoreInterface defines the methods used by handlers from SessionStore
type SessionStoreInterface interface {
	Put(sess *services.Session) (string, error)
	Remove(token string, userID uuid.UUID)
	LockUser(userID uuid.UUID)
}

// ProviderRegistryInterface defines the methods used by handlers from the provider Registry
type ProviderRegistryInterface interface {
	List() []providers.Config
	ListByCategory(c providers.Category) []providers.Config
	Get(id providers.ID) (providers.Config, error)
	Parse(s string) (providers.ID, error)
}
