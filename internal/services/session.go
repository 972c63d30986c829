package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/dimitrije/credvault/internal/crypto"
	"github.com/google/uuid"
)

// Session is an unlocked vault for one user. It owns the derived key and is
// the only place the key lives; it is never serialized.
type Session struct {
	UserID     uuid.UUID
	UnlockedAt time.Time

	mu         sync.Mutex
	key        crypto.SymmetricKey
	locked     bool
	lastActive time.Time
}

func newSession(userID uuid.UUID, key crypto.SymmetricKey, now time.Time) *Session {
	return &Session{
		UserID:     userID,
		UnlockedAt: now,
		key:        key,
		lastActive: now,
	}
}

// Lock scrubs the key. Locking twice is a no-op.
func (s *Session) Lock() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key.Zero()
	s.locked = true
}

func (s *Session) IsLocked() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// copyKey hands out a copy of the key; callers zero it when done.
func (s *Session) copyKey() (crypto.SymmetricKey, error) {
	if s == nil {
		return crypto.SymmetricKey{}, ErrVaultLocked
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return crypto.SymmetricKey{}, ErrVaultLocked
	}
	return s.key, nil
}

func (s *Session) replaceKey(key crypto.SymmetricKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key.Zero()
	s.key = key
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SessionStore maps opaque tokens to sessions for the HTTP surface. It holds
// at most one session per user: unlocking again replaces and scrubs the
// previous one.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	byUser      map[uuid.UUID]string
	idleTimeout time.Duration
	now         func() time.Time
}

func NewSessionStore(idleTimeout time.Duration) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*Session),
		byUser:      make(map[uuid.UUID]string),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Put registers sess and returns the token that resolves it.
func (s *SessionStore) Put(sess *Session) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byUser[sess.UserID]; ok {
		s.dropLocked(prev)
	}
	key := HashToken(token)
	s.sessions[key] = sess
	s.byUser[sess.UserID] = key
	sess.touch(s.now())
	return token, nil
}

// Get resolves token for userID. Unknown, expired, locked or foreign sessions
// all read as ErrVaultLocked.
func (s *SessionStore) Get(token string, userID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := HashToken(token)
	sess, ok := s.sessions[key]
	if !ok || sess.UserID != userID {
		return nil, ErrVaultLocked
	}

	now := s.now()
	if sess.IsLocked() || s.expired(sess, now) {
		s.dropLocked(key)
		return nil, ErrVaultLocked
	}
	sess.touch(now)
	return sess, nil
}

// Remove locks and forgets the session behind token. Sessions held by another
// user are left alone.
func (s *SessionStore) Remove(token string, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := HashToken(token)
	if sess, ok := s.sessions[key]; ok && sess.UserID == userID {
		s.dropLocked(key)
	}
}

// LockUser locks whatever session userID currently holds.
func (s *SessionStore) LockUser(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.byUser[userID]; ok {
		s.dropLocked(key)
	}
}

// Sweep locks sessions idle past the timeout and reports how many it removed.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, sess := range s.sessions {
		if sess.IsLocked() || s.expired(sess, now) {
			s.dropLocked(key)
			removed++
		}
	}
	return removed
}

// LockAll scrubs every session, as on shutdown.
func (s *SessionStore) LockAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.sessions {
		s.dropLocked(key)
	}
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(sess *Session, now time.Time) bool {
	return s.idleTimeout > 0 && now.Sub(sess.idleSince()) > s.idleTimeout
}

func (s *SessionStore) dropLocked(key string) {
	sess, ok := s.sessions[key]
	if !ok {
		return
	}
	sess.Lock()
	delete(s.sessions, key)
	if s.byUser[sess.UserID] == key {
		delete(s.byUser, sess.UserID)
	}
}
