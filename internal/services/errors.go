package services

import (
	"errors"
	"strings"

	"github.com/dimitrije/credvault/internal/providers"
)

var (
	// ErrInvalidPassword is deliberately generic: it never reveals whether a
	// vault exists for the user.
	ErrInvalidPassword    = errors.New("invalid credentials")
	ErrVaultLocked        = errors.New("vault is locked")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrDecryption         = errors.New("credential could not be decrypted")
	ErrVersionConflict    = errors.New("version conflict: credential has been modified")
	ErrUnsupportedBackup  = errors.New("unsupported backup format")
)

// ValidationErrors carries every field violation found in one pass.
type ValidationErrors struct {
	Errors []providers.FieldError
}

func (e *ValidationErrors) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PersistenceError wraps a storage failure that is passed through to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
