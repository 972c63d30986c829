package models

import (
	"time"

	"github.com/dimitrije/credvault/internal/providers"
	"github.com/google/uuid"
)

type StoredCredential struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	Provider   providers.ID      `json:"provider"`
	Name       string            `json:"name"`
	Ciphertext []byte            `json:"-"`
	Nonce      []byte            `json:"-"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	LastUsedAt *time.Time        `json:"last_used_at,omitempty"`
	UsageCount int64             `json:"usage_count"`
	IsEnabled  bool              `json:"is_enabled"`
	Version    int               `json:"version"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// CredentialInfo is the listing view of a stored credential. It never carries
// ciphertext or plaintext.
type CredentialInfo struct {
	ID         uuid.UUID         `json:"id"`
	Provider   providers.ID      `json:"provider"`
	Name       string            `json:"name"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	LastUsedAt *time.Time        `json:"last_used_at,omitempty"`
	UsageCount int64             `json:"usage_count"`
	IsEnabled  bool              `json:"is_enabled"`
	Version    int               `json:"version"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (c *StoredCredential) Info() CredentialInfo {
	return CredentialInfo{
		ID:         c.ID,
		Provider:   c.Provider,
		Name:       c.Name,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		LastUsedAt: c.LastUsedAt,
		UsageCount: c.UsageCount,
		IsEnabled:  c.IsEnabled,
		Version:    c.Version,
		Metadata:   c.Metadata,
	}
}

// DecryptedCredential exists only for the duration of one vault operation.
type DecryptedCredential struct {
	ID        uuid.UUID         `json:"id"`
	Provider  providers.ID      `json:"provider"`
	Name      string            `json:"name"`
	Fields    map[string]string `json:"fields"`
	IsEnabled bool              `json:"isEnabled"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type TestResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	LatencyMs *int64 `json:"latency_ms,omitempty"`
}
