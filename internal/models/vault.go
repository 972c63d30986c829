package models

import (
	"time"

	"github.com/google/uuid"
)

type VaultConfig struct {
	UserID       uuid.UUID `json:"user_id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BackupBlob is the opaque export format. Ciphertext and Nonce are base64 in
// JSON via the []byte encoding.
type BackupBlob struct {
	Version    int    `json:"version"`
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
}

// BackupPayload is the plaintext sealed inside a BackupBlob.
type BackupPayload struct {
	Version     int                   `json:"version"`
	ExportedAt  time.Time             `json:"exportedAt"`
	UserID      uuid.UUID             `json:"userId"`
	Credentials []DecryptedCredential `json:"credentials"`
}
