package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/google/uuid"
)

var _ CredentialStore = (*MemoryStore)(nil)

// MemoryStore keeps every record in process memory. It backs tests and the
// STORE_DRIVER=memory mode; nothing survives a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	configs     map[uuid.UUID]models.VaultConfig
	credentials map[uuid.UUID]models.StoredCredential
	seq         map[uuid.UUID]uint64
	nextSeq     uint64
	usage       []models.UsageLogEntry
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		configs:     make(map[uuid.UUID]models.VaultConfig),
		credentials: make(map[uuid.UUID]models.StoredCredential),
		seq:         make(map[uuid.UUID]uint64),
		now:         time.Now,
	}
}

func (s *MemoryStore) GetVaultConfig(_ context.Context, userID uuid.UUID) (*models.VaultConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &cfg, nil
}

func (s *MemoryStore) CreateVaultConfig(_ context.Context, userID uuid.UUID, passwordHash string) (*models.VaultConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[userID]; ok {
		return nil, ErrVaultExists
	}
	now := s.now()
	cfg := models.VaultConfig{UserID: userID, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	s.configs[userID] = cfg
	return &cfg, nil
}

func (s *MemoryStore) CreateCredential(_ context.Context, cred *models.StoredCredential) (*models.StoredCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[cred.UserID]; !ok {
		return nil, ErrNotFound
	}

	now := s.now()
	stored := copyCredential(*cred)
	stored.ID = uuid.New()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.LastUsedAt = nil
	stored.UsageCount = 0
	stored.Version = 1
	s.credentials[stored.ID] = stored
	s.nextSeq++
	s.seq[stored.ID] = s.nextSeq

	out := copyCredential(stored)
	return &out, nil
}

func (s *MemoryStore) GetCredential(_ context.Context, userID, id uuid.UUID) (*models.StoredCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[id]
	if !ok || cred.UserID != userID {
		return nil, ErrNotFound
	}
	out := copyCredential(cred)
	return &out, nil
}

func (s *MemoryStore) ListCredentials(_ context.Context, userID uuid.UUID) ([]models.StoredCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var creds []models.StoredCredential
	for _, cred := range s.credentials {
		if cred.UserID == userID {
			creds = append(creds, copyCredential(cred))
		}
	}
	sort.Slice(creds, func(i, j int) bool {
		if !creds[i].CreatedAt.Equal(creds[j].CreatedAt) {
			return creds[i].CreatedAt.After(creds[j].CreatedAt)
		}
		return s.seq[creds[i].ID] > s.seq[creds[j].ID]
	})
	return creds, nil
}

func (s *MemoryStore) LatestEnabledByProvider(ctx context.Context, userID uuid.UUID, provider providers.ID) (*models.StoredCredential, error) {
	creds, err := s.ListCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, cred := range creds {
		if cred.Provider == provider && cred.IsEnabled {
			return &cred, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateCredential(_ context.Context, cred *models.StoredCredential, expectedVersion int) (*models.StoredCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.credentials[cred.ID]
	if !ok || current.UserID != cred.UserID {
		return nil, ErrNotFound
	}
	if current.Version != expectedVersion {
		return nil, ErrVersionConflict
	}

	current.Name = cred.Name
	current.Ciphertext = append([]byte(nil), cred.Ciphertext...)
	current.Nonce = append([]byte(nil), cred.Nonce...)
	current.IsEnabled = cred.IsEnabled
	current.Metadata = cloneMetadata(cred.Metadata)
	current.Version++
	current.UpdatedAt = s.now()
	s.credentials[cred.ID] = current

	out := copyCredential(current)
	return &out, nil
}

func (s *MemoryStore) DeleteCredential(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok || cred.UserID != userID {
		return ErrNotFound
	}
	delete(s.credentials, id)
	delete(s.seq, id)
	return nil
}

func (s *MemoryStore) RecordUsage(_ context.Context, entry *models.UsageLogEntry) (*models.UsageLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[entry.CredentialID]
	if !ok || cred.UserID != entry.UserID {
		return nil, ErrNotFound
	}

	now := s.now()
	logged := *entry
	logged.ID = uuid.New()
	logged.Timestamp = now
	logged.Metadata = cloneMetadata(entry.Metadata)
	s.usage = append(s.usage, logged)

	cred.UsageCount++
	cred.LastUsedAt = &now
	s.credentials[cred.ID] = cred

	return &logged, nil
}

func (s *MemoryStore) ListUsageLogs(_ context.Context, userID uuid.UUID, credentialID *uuid.UUID, limit int) ([]models.UsageLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.UsageLogEntry
	for i := len(s.usage) - 1; i >= 0; i-- {
		e := s.usage[i]
		if e.UserID != userID {
			continue
		}
		if credentialID != nil && e.CredentialID != *credentialID {
			continue
		}
		e.Metadata = cloneMetadata(e.Metadata)
		entries = append(entries, e)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

func (s *MemoryStore) RotateMasterPassword(_ context.Context, userID uuid.UUID, passwordHash string, creds []models.StoredCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[userID]
	if !ok {
		return ErrNotFound
	}

	owned := 0
	for _, cred := range s.credentials {
		if cred.UserID == userID {
			owned++
		}
	}
	if owned != len(creds) {
		return ErrVersionConflict
	}

	now := s.now()
	shadow := make(map[uuid.UUID]models.StoredCredential, len(creds))
	for _, next := range creds {
		current, ok := s.credentials[next.ID]
		if !ok || current.UserID != userID || current.Version != next.Version {
			return ErrVersionConflict
		}
		current.Ciphertext = append([]byte(nil), next.Ciphertext...)
		current.Nonce = append([]byte(nil), next.Nonce...)
		current.Version++
		current.UpdatedAt = now
		shadow[current.ID] = current
	}

	for id, cred := range shadow {
		s.credentials[id] = cred
	}
	cfg.PasswordHash = passwordHash
	cfg.UpdatedAt = now
	s.configs[userID] = cfg
	return nil
}

func copyCredential(c models.StoredCredential) models.StoredCredential {
	c.Ciphertext = append([]byte(nil), c.Ciphertext...)
	c.Nonce = append([]byte(nil), c.Nonce...)
	c.Metadata = cloneMetadata(c.Metadata)
	if c.LastUsedAt != nil {
		t := *c.LastUsedAt
		c.LastUsedAt = &t
	}
	return c
}
