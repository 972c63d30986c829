package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/dimitrije/credvault/internal/crypto"
	"github.com/dimitrije/credvault/internal/database"
	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/store"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	Store   *store.PostgresStore
	Engine  *crypto.Engine
	counter int
}

func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{
		Store:  store.NewPostgresStore(db),
		Engine: crypto.NewEngine(0),
	}
}

// CreateVault creates a vault config for a fresh user protected by password
func (f *Fixtures) CreateVault(t *testing.T, password string) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	hash := f.Engine.HashPassword(password, userID.String())
	if _, err := f.Store.CreateVaultConfig(context.Background(), userID, hash); err != nil {
		t.Fatalf("failed to create vault config: %v", err)
	}
	return userID
}

type CredentialOption func(*models.StoredCredential)

// CreateCredential stores a credential sealed under the key derived from password
func (f *Fixtures) CreateCredential(t *testing.T, userID uuid.UUID, password string, provider providers.ID, fields map[string]string, opts ...CredentialOption) *models.StoredCredential {
	t.Helper()
	f.counter++

	key := f.Engine.DeriveKey(password, userID.String())
	defer key.Zero()

	plaintext, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to encode fields: %v", err)
	}
	ciphertext, nonce, err := f.Engine.Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("failed to encrypt fields: %v", err)
	}

	cred := &models.StoredCredential{
		UserID:     userID,
		Provider:   provider,
		Name:       fmt.Sprintf("Credential %d", f.counter),
		Ciphertext: ciphertext,
		Nonce:      nonce,
		IsEnabled:  true,
		Metadata:   map[string]string{},
	}
	for _, opt := range opts {
		opt(cred)
	}

	created, err := f.Store.CreateCredential(context.Background(), cred)
	if err != nil {
		t.Fatalf("failed to create credential: %v", err)
	}
	return created
}

func WithCredentialName(name string) CredentialOption {
	return func(c *models.StoredCredential) {
		c.Name = name
	}
}

func WithDisabled() CredentialOption {
	return func(c *models.StoredCredential) {
		c.IsEnabled = false
	}
}
