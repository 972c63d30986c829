// Package crypto implements key derivation and authenticated encryption for
// vault records. It has no knowledge of providers, sessions or storage.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the size of AES-256 keys in bytes.
	KeySize = 32

	// NonceSize is the size of GCM nonces in bytes.
	NonceSize = 12

	// TagSize is the size of GCM authentication tags in bytes.
	TagSize = 16

	// MinIterations is the PBKDF2 iteration floor.
	MinIterations = 100000

	kdfNamespace    = "credvault:kdf:v1:"
	verifyNamespace = "credvault:verify:v1"
)

var (
	// ErrDecryptionFailed is returned when the GCM tag does not verify.
	ErrDecryptionFailed = errors.New("decryption failed: authentication error")

	// ErrInvalidNonce is returned when a nonce has the wrong length.
	ErrInvalidNonce = errors.New("nonce must be 12 bytes")

	// ErrInvalidCiphertext is returned when ciphertext is shorter than a tag.
	ErrInvalidCiphertext = errors.New("ciphertext too short")
)

// SymmetricKey is a 256-bit AEAD key.
type SymmetricKey [KeySize]byte

// Zero overwrites the key material.
func (k *SymmetricKey) Zero() {
	for i := range k {
		k[i] = 0
	}
}

func (k *SymmetricKey) IsZero() bool {
	var zero SymmetricKey
	return subtle.ConstantTimeCompare(k[:], zero[:]) == 1
}

// Engine performs all vault cryptography. The zero value is not usable; use
// NewEngine.
type Engine struct {
	iterations int
}

// NewEngine returns an engine using the given PBKDF2 iteration count, raised
// to MinIterations if lower.
func NewEngine(iterations int) *Engine {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	return &Engine{iterations: iterations}
}

func (e *Engine) Iterations() int {
	return e.iterations
}

// DeriveKey runs PBKDF2-SHA256 over the password with a salt bound to userID.
// The same inputs always produce the same key.
func (e *Engine) DeriveKey(password, userID string) SymmetricKey {
	var key SymmetricKey
	derived := pbkdf2.Key([]byte(password), salt(userID), e.iterations, KeySize, sha256.New)
	copy(key[:], derived)
	ZeroBytes(derived)
	return key
}

func salt(userID string) []byte {
	return []byte(kdfNamespace + userID)
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random nonce. The
// returned ciphertext carries the 16-byte tag.
func (e *Engine) Encrypt(plaintext []byte, key SymmetricKey) (ciphertext, nonce []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens ciphertext sealed by Encrypt. Any tag mismatch, whether from a
// wrong key, altered ciphertext or altered nonce, yields ErrDecryptionFailed.
func (e *Engine) Decrypt(ciphertext, nonce []byte, key SymmetricKey) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}
	if len(ciphertext) < TagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newGCM(key SymmetricKey) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// HashPassword returns the hex SHA-256 digest used to confirm a master
// password before any key is derived.
func (e *Engine) HashPassword(password, userID string) string {
	sum := sha256.Sum256([]byte(password + userID + verifyNamespace))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares in constant time.
func (e *Engine) VerifyPassword(password, userID, hash string) bool {
	computed := e.HashPassword(password, userID)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// ZeroBytes overwrites b.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
