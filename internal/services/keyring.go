package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type KeyringState struct {
	Unlocked bool
	UserID   uuid.UUID
}

// Keyring holds at most one unlocked session for a single-caller process such
// as the CLI. It only opens existing vaults. Unlocking for a different user
// discards the previous key before the new password is checked.
type Keyring struct {
	vault *VaultService

	mu      sync.Mutex
	current *Session
}

func NewKeyring(vault *VaultService) *Keyring {
	return &Keyring{vault: vault}
}

func (k *Keyring) Unlock(ctx context.Context, userID uuid.UUID, password string) (*Session, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.current != nil && k.current.UserID != userID {
		k.vault.Lock(k.current)
		k.current = nil
	}

	sess, err := k.vault.Open(ctx, userID, password)
	if err != nil {
		return nil, err
	}

	if k.current != nil {
		k.vault.Lock(k.current)
	}
	k.current = sess
	return sess, nil
}

// Lock is idempotent.
func (k *Keyring) Lock() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.current != nil {
		k.vault.Lock(k.current)
		k.current = nil
	}
}

// Session returns the cached session for userID, or ErrVaultLocked when the
// keyring is locked or holds another user.
func (k *Keyring) Session(userID uuid.UUID) (*Session, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.current == nil || k.current.UserID != userID || k.current.IsLocked() {
		return nil, ErrVaultLocked
	}
	return k.current, nil
}

func (k *Keyring) State() KeyringState {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.current == nil || k.current.IsLocked() {
		return KeyringState{}
	}
	return KeyringState{Unlocked: true, UserID: k.current.UserID}
}
