package testutil

import (
	"context"

	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockVaultService mocks the VaultService
type MockVaultService struct {
	mock.Mock
}

func (m *MockVaultService) Unlock(ctx context.Context, userID uuid.UUID, password string) (*services.Session, error) {
	args := m.Called(ctx, userID, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockVaultService) Lock(sess *services.Session) {
	m.Called(sess)
}

func (m *MockVaultService) StoreCredential(ctx context.Context, sess *services.Session, in services.NewCredential) (*models.CredentialInfo, error) {
	args := m.Called(ctx, sess, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CredentialInfo), args.Error(1)
}

func (m *MockVaultService) GetCredential(ctx context.Context, sess *services.Session, id uuid.UUID) (*models.DecryptedCredential, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DecryptedCredential), args.Error(1)
}

func (m *MockVaultService) GetCredentialByProvider(ctx context.Context, sess *services.Session, provider providers.ID) (*models.DecryptedCredential, error) {
	args := m.Called(ctx, sess, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DecryptedCredential), args.Error(1)
}

func (m *MockVaultService) ListCredentials(ctx context.Context, sess *services.Session) ([]models.CredentialInfo, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CredentialInfo), args.Error(1)
}

func (m *MockVaultService) UpdateCredential(ctx context.Context, sess *services.Session, id uuid.UUID, upd services.CredentialUpdate) (*models.CredentialInfo, error) {
	args := m.Called(ctx, sess, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CredentialInfo), args.Error(1)
}

func (m *MockVaultService) DeleteCredential(ctx context.Context, sess *services.Session, id uuid.UUID) error {
	args := m.Called(ctx, sess, id)
	return args.Error(0)
}

func (m *MockVaultService) LogUsage(ctx context.Context, sess *services.Session, credentialID uuid.UUID, rec services.UsageRecord) (*models.UsageLogEntry, error) {
	args := m.Called(ctx, sess, credentialID, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageLogEntry), args.Error(1)
}

func (m *MockVaultService) ListUsage(ctx context.Context, sess *services.Session, credentialID *uuid.UUID, limit int) ([]models.UsageLogEntry, error) {
	args := m.Called(ctx, sess, credentialID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UsageLogEntry), args.Error(1)
}

func (m *MockVaultService) GetStats(ctx context.Context, sess *services.Session) (*models.VaultStats, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VaultStats), args.Error(1)
}

func (m *MockVaultService) TestCredential(ctx context.Context, sess *services.Session, id uuid.UUID) (*models.TestResult, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestResult), args.Error(1)
}

func (m *MockVaultService) ChangeMasterPassword(ctx context.Context, sess *services.Session, oldPassword, newPassword string) error {
	args := m.Called(ctx, sess, oldPassword, newPassword)
	return args.Error(0)
}

func (m *MockVaultService) ExportBackup(ctx context.Context, sess *services.Session) (*models.BackupBlob, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BackupBlob), args.Error(1)
}

func (m *MockVaultService) ImportBackup(ctx context.Context, sess *services.Session, blob *models.BackupBlob) (int, error) {
	args := m.Called(ctx, sess, blob)
	return args.Int(0), args.Error(1)
}

// MockSessionStore mocks the SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Put(sess *services.Session) (string, error) {
	args := m.Called(sess)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) Remove(token string, userID uuid.UUID) {
	m.Called(token, userID)
}

func (m *MockSessionStore) LockUser(userID uuid.UUID) {
	m.Called(userID)
}
