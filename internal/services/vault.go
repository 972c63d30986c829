package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dimitrije/credvault/internal/crypto"
	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/probe"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const backupVersion = 1

type NewCredential struct {
	Provider providers.ID
	Name     string
	Fields   map[string]string
	Metadata map[string]string
}

// CredentialUpdate leaves nil members untouched. A non-nil Fields map
// replaces every field and is re-encrypted under a fresh nonce.
type CredentialUpdate struct {
	Name      *string
	Fields    map[string]string
	IsEnabled *bool
	Metadata  map[string]string
}

type UsageRecord struct {
	Endpoint       string
	Method         string
	StatusCode     int
	ResponseTimeMs int64
	Metadata       map[string]string
}

type VaultService struct {
	store    store.CredentialStore
	registry *providers.Registry
	engine   *crypto.Engine
	prober   probe.Prober
	logger   zerolog.Logger
	now      func() time.Time

	userLocks sync.Map
	credLocks sync.Map
}

func NewVaultService(st store.CredentialStore, registry *providers.Registry, engine *crypto.Engine, prober probe.Prober, logger zerolog.Logger) *VaultService {
	return &VaultService{
		store:    st,
		registry: registry,
		engine:   engine,
		prober:   prober,
		logger:   logger.With().Str("component", "vault").Logger(),
		now:      time.Now,
	}
}

// Unlock verifies password and returns a session holding the derived key. The
// first unlock for a user creates the vault with that password, so callers must
// have authenticated userID first.
func (s *VaultService) Unlock(ctx context.Context, userID uuid.UUID, password string) (*Session, error) {
	return s.unlock(ctx, userID, password, true)
}

// Open is Unlock for an existing vault only. A missing vault reads as a wrong
// password.
func (s *VaultService) Open(ctx context.Context, userID uuid.UUID, password string) (*Session, error) {
	return s.unlock(ctx, userID, password, false)
}

func (s *VaultService) unlock(ctx context.Context, userID uuid.UUID, password string, create bool) (*Session, error) {
	if password == "" {
		return nil, ErrInvalidPassword
	}

	cfg, err := s.store.GetVaultConfig(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound) && !create:
		s.logger.Warn().Str("user_id", userID.String()).Msg("vault open rejected: no vault")
		return nil, ErrInvalidPassword
	case errors.Is(err, store.ErrNotFound):
		cfg, err = s.bootstrap(ctx, userID, password)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, persistenceError("get vault config", err)
	}

	if !s.engine.VerifyPassword(password, userID.String(), cfg.PasswordHash) {
		s.logger.Warn().Str("user_id", userID.String()).Msg("vault unlock rejected")
		return nil, ErrInvalidPassword
	}

	key, err := s.deriveKey(ctx, password, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("vault unlocked")
	return newSession(userID, key, s.now()), nil
}

func (s *VaultService) bootstrap(ctx context.Context, userID uuid.UUID, password string) (*models.VaultConfig, error) {
	hash := s.engine.HashPassword(password, userID.String())
	cfg, err := s.store.CreateVaultConfig(ctx, userID, hash)
	if errors.Is(err, store.ErrVaultExists) {
		// Lost a race with a concurrent first unlock; verify against the winner.
		cfg, err = s.store.GetVaultConfig(ctx, userID)
	}
	if err != nil {
		return nil, persistenceError("create vault config", err)
	}
	s.logger.Info().Str("user_id", userID.String()).Msg("vault created")
	return cfg, nil
}

// deriveKey runs the KDF off the caller's goroutine so a cancelled request
// returns promptly.
func (s *VaultService) deriveKey(ctx context.Context, password string, userID uuid.UUID) (crypto.SymmetricKey, error) {
	done := make(chan crypto.SymmetricKey, 1)
	go func() {
		done <- s.engine.DeriveKey(password, userID.String())
	}()

	select {
	case key := <-done:
		return key, nil
	case <-ctx.Done():
		go func() {
			key := <-done
			key.Zero()
		}()
		return crypto.SymmetricKey{}, ctx.Err()
	}
}

// Lock scrubs the session key. Safe on nil and already-locked sessions.
func (s *VaultService) Lock(sess *Session) {
	if sess == nil || sess.IsLocked() {
		return
	}
	sess.Lock()
	s.logger.Info().Str("user_id", sess.UserID.String()).Msg("vault locked")
}

func (s *VaultService) userLock(userID uuid.UUID) *sync.RWMutex {
	l, _ := s.userLocks.LoadOrStore(userID, &sync.RWMutex{})
	return l.(*sync.RWMutex)
}

func (s *VaultService) credLock(id uuid.UUID) *sync.Mutex {
	l, _ := s.credLocks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// begin takes the user's shared lock and copies the session key. The
// returned release must be called exactly once.
func (s *VaultService) begin(sess *Session) (*crypto.SymmetricKey, func(), error) {
	if sess == nil {
		return nil, nil, ErrVaultLocked
	}
	l := s.userLock(sess.UserID)
	l.RLock()

	k, err := sess.copyKey()
	if err != nil {
		l.RUnlock()
		return nil, nil, err
	}
	key := &k
	return key, func() {
		key.Zero()
		l.RUnlock()
	}, nil
}

func (s *VaultService) StoreCredential(ctx context.Context, sess *Session, in NewCredential) (*models.CredentialInfo, error) {
	key, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.storeCredential(ctx, sess.UserID, *key, in, true)
}

func (s *VaultService) storeCredential(ctx context.Context, userID uuid.UUID, key crypto.SymmetricKey, in NewCredential, enabled bool) (*models.CredentialInfo, error) {
	cfg, err := s.registry.Get(in.Provider)
	if err != nil {
		return nil, err
	}
	if fieldErrs := cfg.Validate(in.Fields); len(fieldErrs) > 0 {
		return nil, &ValidationErrors{Errors: fieldErrs}
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = cfg.Name
	}

	ciphertext, nonce, err := s.sealFields(in.Fields, key)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateCredential(ctx, &models.StoredCredential{
		UserID:     userID,
		Provider:   cfg.Provider,
		Name:       name,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		IsEnabled:  enabled,
		Metadata:   in.Metadata,
	})
	if err != nil {
		return nil, persistenceError("create credential", err)
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("credential_id", created.ID.String()).
		Str("provider", string(created.Provider)).
		Msg("credential stored")

	info := created.Info()
	return &info, nil
}

func (s *VaultService) sealFields(fields map[string]string, key crypto.SymmetricKey) ([]byte, []byte, error) {
	plaintext, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	defer crypto.ZeroBytes(plaintext)

	ciphertext, nonce, err := s.engine.Encrypt(plaintext, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt credential: %w", err)
	}
	return ciphertext, nonce, nil
}

func (s *VaultService) openFields(cred *models.StoredCredential, key crypto.SymmetricKey) (map[string]string, error) {
	plaintext, err := s.engine.Decrypt(cred.Ciphertext, cred.Nonce, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	defer crypto.ZeroBytes(plaintext)

	var fields map[string]string
	if err := json.Unmarshal(plaintext, &fields); err != nil {
		return nil, fmt.Errorf("%w: malformed payload", ErrDecryption)
	}
	return fields, nil
}

func (s *VaultService) decrypt(cred *models.StoredCredential, key crypto.SymmetricKey) (*models.DecryptedCredential, error) {
	fields, err := s.openFields(cred, key)
	if err != nil {
		s.logger.Error().
			Str("user_id", cred.UserID.String()).
			Str("credential_id", cred.ID.String()).
			Msg("credential failed authentication")
		return nil, err
	}
	return &models.DecryptedCredential{
		ID:        cred.ID,
		Provider:  cred.Provider,
		Name:      cred.Name,
		Fields:    fields,
		IsEnabled: cred.IsEnabled,
		Metadata:  cred.Metadata,
	}, nil
}

func (s *VaultService) GetCredential(ctx context.Context, sess *Session, id uuid.UUID) (*models.DecryptedCredential, error) {
	key, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	cred, err := s.loadCredential(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	return s.decrypt(cred, *key)
}

func (s *VaultService) loadCredential(ctx context.Context, userID, id uuid.UUID) (*models.StoredCredential, error) {
	cred, err := s.store.GetCredential(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, persistenceError("get credential", err)
	}
	return cred, nil
}

// GetCredentialByProvider returns the most recently created enabled
// credential for provider.
func (s *VaultService) GetCredentialByProvider(ctx context.Context, sess *Session, provider providers.ID) (*models.DecryptedCredential, error) {
	key, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.registry.Get(provider); err != nil {
		return nil, err
	}

	cred, err := s.store.LatestEnabledByProvider(ctx, sess.UserID, provider)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, persistenceError("get credential by provider", err)
	}
	return s.decrypt(cred, *key)
}

// ListCredentials returns metadata only; nothing is decrypted.
func (s *VaultService) ListCredentials(ctx context.Context, sess *Session) ([]models.CredentialInfo, error) {
	_, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	creds, err := s.store.ListCredentials(ctx, sess.UserID)
	if err != nil {
		return nil, persistenceError("list credentials", err)
	}

	infos := make([]models.CredentialInfo, 0, len(creds))
	for i := range creds {
		infos = append(infos, creds[i].Info())
	}
	return infos, nil
}

func (s *VaultService) UpdateCredential(ctx context.Context, sess *Session, id uuid.UUID, upd CredentialUpdate) (*models.CredentialInfo, error) {
	key, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	l := s.credLock(id)
	l.Lock()
	defer l.Unlock()

	current, err := s.loadCredential(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	next := *current

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, &ValidationErrors{Errors: []providers.FieldError{{Field: "name", Message: "Name is required"}}}
		}
		next.Name = name
	}

	if upd.Fields != nil {
		cfg, err := s.registry.Get(current.Provider)
		if err != nil {
			return nil, err
		}
		if fieldErrs := cfg.Validate(upd.Fields); len(fieldErrs) > 0 {
			return nil, &ValidationErrors{Errors: fieldErrs}
		}
		next.Ciphertext, next.Nonce, err = s.sealFields(upd.Fields, *key)
		if err != nil {
			return nil, err
		}
	}

	if upd.IsEnabled != nil {
		next.IsEnabled = *upd.IsEnabled
	}
	if upd.Metadata != nil {
		next.Metadata = upd.Metadata
	}

	updated, err := s.store.UpdateCredential(ctx, &next, current.Version)
	switch {
	case errors.Is(err, store.ErrVersionConflict):
		return nil, ErrVersionConflict
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrCredentialNotFound
	case err != nil:
		return nil, persistenceError("update credential", err)
	}

	info := updated.Info()
	return &info, nil
}

// DeleteCredential removes the record. Usage logs that reference it remain.
func (s *VaultService) DeleteCredential(ctx context.Context, sess *Session, id uuid.UUID) error {
	_, release, err := s.begin(sess)
	if err != nil {
		return err
	}
	defer release()

	l := s.credLock(id)
	l.Lock()
	defer l.Unlock()

	err = s.store.DeleteCredential(ctx, sess.UserID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrCredentialNotFound
	}
	if err != nil {
		return persistenceError("delete credential", err)
	}
	s.credLocks.Delete(id)

	s.logger.Info().
		Str("user_id", sess.UserID.String()).
		Str("credential_id", id.String()).
		Msg("credential deleted")
	return nil
}

// LogUsage records one outbound call made with a credential. Failures are
// logged and returned; callers decide whether they matter.
func (s *VaultService) LogUsage(ctx context.Context, sess *Session, credentialID uuid.UUID, rec UsageRecord) (*models.UsageLogEntry, error) {
	_, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	cred, err := s.loadCredential(ctx, sess.UserID, credentialID)
	if err != nil {
		return nil, err
	}
	return s.recordUsage(ctx, cred, rec)
}

func (s *VaultService) recordUsage(ctx context.Context, cred *models.StoredCredential, rec UsageRecord) (*models.UsageLogEntry, error) {
	entry, err := s.store.RecordUsage(ctx, &models.UsageLogEntry{
		CredentialID:   cred.ID,
		UserID:         cred.UserID,
		Provider:       cred.Provider,
		Endpoint:       rec.Endpoint,
		Method:         rec.Method,
		StatusCode:     rec.StatusCode,
		ResponseTimeMs: rec.ResponseTimeMs,
		Metadata:       rec.Metadata,
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("user_id", cred.UserID.String()).
			Str("credential_id", cred.ID.String()).
			Msg("failed to record credential usage")
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, persistenceError("record usage", err)
	}
	return entry, nil
}

// RecordUsageAsync logs usage without blocking the caller. Errors only reach
// the log.
func (s *VaultService) RecordUsageAsync(sess *Session, credentialID uuid.UUID, rec UsageRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = s.LogUsage(ctx, sess, credentialID, rec)
	}()
}

// ListUsage returns the newest usage entries, optionally for one credential.
// Entries of deleted credentials are still listed.
func (s *VaultService) ListUsage(ctx context.Context, sess *Session, credentialID *uuid.UUID, limit int) ([]models.UsageLogEntry, error) {
	_, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := s.store.ListUsageLogs(ctx, sess.UserID, credentialID, limit)
	if err != nil {
		return nil, persistenceError("list usage logs", err)
	}
	if entries == nil {
		entries = []models.UsageLogEntry{}
	}
	return entries, nil
}

func (s *VaultService) GetStats(ctx context.Context, sess *Session) (*models.VaultStats, error) {
	_, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	creds, err := s.store.ListCredentials(ctx, sess.UserID)
	if err != nil {
		return nil, persistenceError("list credentials", err)
	}
	logs, err := s.store.ListUsageLogs(ctx, sess.UserID, nil, 0)
	if err != nil {
		return nil, persistenceError("list usage logs", err)
	}

	return s.computeStats(creds, logs), nil
}

func (s *VaultService) computeStats(creds []models.StoredCredential, logs []models.UsageLogEntry) *models.VaultStats {
	stats := &models.VaultStats{
		TotalKeys:         len(creds),
		ProviderBreakdown: make(map[providers.ID]models.ProviderStats),
		CategoryBreakdown: make(map[providers.Category]int),
	}

	bump := func(t *time.Time) {
		if t != nil && (stats.LastActivity == nil || t.After(*stats.LastActivity)) {
			v := *t
			stats.LastActivity = &v
		}
	}

	for _, c := range creds {
		if c.IsEnabled {
			stats.ActiveKeys++
		}
		stats.TotalUsage += c.UsageCount

		ps := stats.ProviderBreakdown[c.Provider]
		ps.Keys++
		ps.Usage += c.UsageCount
		stats.ProviderBreakdown[c.Provider] = ps

		if cfg, err := s.registry.Get(c.Provider); err == nil {
			stats.CategoryBreakdown[cfg.Category]++
		}
		bump(c.LastUsedAt)
	}

	live := make(map[uuid.UUID]bool, len(creds))
	for _, c := range creds {
		live[c.ID] = true
	}

	totals := make(map[providers.ID]int64)
	counts := make(map[providers.ID]int64)
	for _, e := range logs {
		ts := e.Timestamp
		bump(&ts)
		if !live[e.CredentialID] {
			continue
		}
		ps := stats.ProviderBreakdown[e.Provider]
		if e.StatusCode == 0 || e.StatusCode >= 400 {
			ps.ErrorCount++
		}
		stats.ProviderBreakdown[e.Provider] = ps
		totals[e.Provider] += e.ResponseTimeMs
		counts[e.Provider]++
	}
	for p, n := range counts {
		ps := stats.ProviderBreakdown[p]
		ps.AvgResponseMs = float64(totals[p]) / float64(n)
		stats.ProviderBreakdown[p] = ps
	}

	return stats
}

// TestCredential runs the provider's connectivity check. Providers without one
// report a neutral success. Checks that reach the provider are recorded as
// usage; a failure to record does not change the result.
func (s *VaultService) TestCredential(ctx context.Context, sess *Session, id uuid.UUID) (*models.TestResult, error) {
	key, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	cred, err := s.loadCredential(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	dec, err := s.decrypt(cred, *key)
	if err != nil {
		return nil, err
	}

	if s.prober == nil {
		return &models.TestResult{Success: true, Message: "no test available"}, nil
	}

	res, err := s.prober.Probe(ctx, dec.Provider, dec.Fields)
	if errors.Is(err, probe.ErrNoProbe) {
		return &models.TestResult{Success: true, Message: "no test available"}, nil
	}
	if err != nil {
		return &models.TestResult{Success: false, Message: err.Error()}, nil
	}

	latency := res.Latency.Milliseconds()
	if res.Reached() {
		_, _ = s.recordUsage(ctx, cred, UsageRecord{
			Endpoint:       res.Endpoint,
			Method:         res.Method,
			StatusCode:     res.StatusCode,
			ResponseTimeMs: latency,
			Metadata:       map[string]string{"source": "connection_test"},
		})
	}

	return &models.TestResult{Success: res.Success, Message: res.Message, LatencyMs: &latency}, nil
}

// ChangeMasterPassword re-encrypts every credential under a key derived from
// newPassword and stores the new hash in one unit. On any failure the vault
// keeps its previous password and ciphertexts; on success sess holds the new
// key.
func (s *VaultService) ChangeMasterPassword(ctx context.Context, sess *Session, oldPassword, newPassword string) error {
	if sess == nil {
		return ErrVaultLocked
	}
	if newPassword == "" {
		return &ValidationErrors{Errors: []providers.FieldError{{Field: "newPassword", Message: "New password is required"}}}
	}

	l := s.userLock(sess.UserID)
	l.Lock()
	defer l.Unlock()

	if sess.IsLocked() {
		return ErrVaultLocked
	}
	userID := sess.UserID

	cfg, err := s.store.GetVaultConfig(ctx, userID)
	if err != nil {
		return persistenceError("get vault config", err)
	}
	if !s.engine.VerifyPassword(oldPassword, userID.String(), cfg.PasswordHash) {
		return ErrInvalidPassword
	}

	oldKey, err := s.deriveKey(ctx, oldPassword, userID)
	if err != nil {
		return err
	}
	defer oldKey.Zero()

	newKey, err := s.deriveKey(ctx, newPassword, userID)
	if err != nil {
		return err
	}

	creds, err := s.store.ListCredentials(ctx, userID)
	if err != nil {
		newKey.Zero()
		return persistenceError("list credentials", err)
	}

	shadow := make([]models.StoredCredential, len(creds))
	for i := range creds {
		fields, err := s.openFields(&creds[i], oldKey)
		if err != nil {
			newKey.Zero()
			return err
		}
		shadow[i] = creds[i]
		shadow[i].Ciphertext, shadow[i].Nonce, err = s.sealFields(fields, newKey)
		if err != nil {
			newKey.Zero()
			return err
		}
	}

	// The commit must not be abandoned halfway by a cancelled request.
	commitCtx := context.WithoutCancel(ctx)
	hash := s.engine.HashPassword(newPassword, userID.String())
	if err := s.store.RotateMasterPassword(commitCtx, userID, hash, shadow); err != nil {
		newKey.Zero()
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("master password rotation aborted")
		if errors.Is(err, store.ErrVersionConflict) {
			return ErrVersionConflict
		}
		return persistenceError("rotate master password", err)
	}

	sess.replaceKey(newKey)
	s.logger.Info().
		Str("user_id", userID.String()).
		Int("credentials", len(shadow)).
		Msg("master password rotated")
	return nil
}

// ExportBackup seals every credential of the user into one blob under the
// session key.
func (s *VaultService) ExportBackup(ctx context.Context, sess *Session) (*models.BackupBlob, error) {
	key, release, err := s.begin(sess)
	if err != nil {
		return nil, err
	}
	defer release()

	creds, err := s.store.ListCredentials(ctx, sess.UserID)
	if err != nil {
		return nil, persistenceError("list credentials", err)
	}

	payload := models.BackupPayload{
		Version:     backupVersion,
		ExportedAt:  s.now().UTC(),
		UserID:      sess.UserID,
		Credentials: make([]models.DecryptedCredential, 0, len(creds)),
	}
	for i := range creds {
		dec, err := s.decrypt(&creds[i], *key)
		if err != nil {
			return nil, err
		}
		payload.Credentials = append(payload.Credentials, *dec)
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	defer crypto.ZeroBytes(plaintext)

	ciphertext, nonce, err := s.engine.Encrypt(plaintext, *key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt backup: %w", err)
	}

	s.logger.Info().
		Str("user_id", sess.UserID.String()).
		Int("credentials", len(payload.Credentials)).
		Msg("vault exported")
	return &models.BackupBlob{Version: backupVersion, Ciphertext: ciphertext, Nonce: nonce}, nil
}

// ImportBackup restores every credential in blob as a new record and returns
// how many were stored. One bad entry does not stop the rest.
func (s *VaultService) ImportBackup(ctx context.Context, sess *Session, blob *models.BackupBlob) (int, error) {
	key, release, err := s.begin(sess)
	if err != nil {
		return 0, err
	}
	defer release()

	if blob == nil || blob.Version != backupVersion {
		return 0, ErrUnsupportedBackup
	}

	plaintext, err := s.engine.Decrypt(blob.Ciphertext, blob.Nonce, *key)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	defer crypto.ZeroBytes(plaintext)

	var payload models.BackupPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedBackup, err)
	}
	if payload.Version != backupVersion {
		return 0, ErrUnsupportedBackup
	}
	if payload.UserID != sess.UserID {
		return 0, fmt.Errorf("%w: backup belongs to another user", ErrDecryption)
	}

	imported := 0
	for _, c := range payload.Credentials {
		_, err := s.storeCredential(ctx, sess.UserID, *key, NewCredential{
			Provider: c.Provider,
			Name:     c.Name,
			Fields:   c.Fields,
			Metadata: c.Metadata,
		}, c.IsEnabled)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("user_id", sess.UserID.String()).
				Str("provider", string(c.Provider)).
				Msg("skipped credential during import")
			continue
		}
		imported++
	}

	s.logger.Info().
		Str("user_id", sess.UserID.String()).
		Int("imported", imported).
		Int("total", len(payload.Credentials)).
		Msg("vault imported")
	return imported, nil
}
