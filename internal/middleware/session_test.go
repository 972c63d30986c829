package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/credvault/internal/crypto"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/dimitrije/credvault/internal/store"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	app      http.Handler
	jwt      *services.JWTService
	vault    *services.VaultService
	sessions *services.SessionStore
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		jwt:      newTestJWTService(),
		vault:    services.NewVaultService(store.NewMemoryStore(), providers.Default(), crypto.NewEngine(0), nil, zerolog.Nop()),
		sessions: services.NewSessionStore(time.Minute),
	}

	app := drift.New()
	app.Use(Auth(f.jwt))
	app.Use(VaultSession(f.sessions))
	app.Get("/vault", func(c *drift.Context) {
		sess := GetVaultSession(c)
		if sess == nil {
			c.InternalServerError("no session")
			return
		}
		_ = c.JSON(http.StatusOK, map[string]string{"user_id": sess.UserID.String()})
	})
	f.app = app
	return f
}

func (f *sessionFixture) unlock(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	sess, err := f.vault.Unlock(context.Background(), userID, "master")
	require.NoError(t, err)
	token, err := f.sessions.Put(sess)
	require.NoError(t, err)
	return token
}

func (f *sessionFixture) do(t *testing.T, userID uuid.UUID, sessionToken string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/vault", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, f.jwt, userID, "user@example.com"))
	if sessionToken != "" {
		req.Header.Set(VaultSessionHeader, sessionToken)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func TestVaultSession_Unlocked(t *testing.T) {
	f := newSessionFixture(t)
	userID := uuid.New()
	token := f.unlock(t, userID)

	rec := f.do(t, userID, token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
}

func TestVaultSession_MissingHeader(t *testing.T) {
	f := newSessionFixture(t)
	userID := uuid.New()
	f.unlock(t, userID)

	rec := f.do(t, userID, "")

	assert.Equal(t, 423, rec.Code)
	assert.Contains(t, rec.Body.String(), "VAULT_LOCKED")
}

func TestVaultSession_UnknownToken(t *testing.T) {
	f := newSessionFixture(t)

	rec := f.do(t, uuid.New(), "not-a-session")

	assert.Equal(t, 423, rec.Code)
}

func TestVaultSession_OtherUsersToken(t *testing.T) {
	f := newSessionFixture(t)
	owner := uuid.New()
	token := f.unlock(t, owner)

	rec := f.do(t, uuid.New(), token)

	assert.Equal(t, 423, rec.Code)
}

func TestVaultSession_AfterLock(t *testing.T) {
	f := newSessionFixture(t)
	userID := uuid.New()
	token := f.unlock(t, userID)

	f.sessions.Remove(token, userID)
	rec := f.do(t, userID, token)

	assert.Equal(t, 423, rec.Code)
}

func TestVaultSession_RequiresIdentity(t *testing.T) {
	sessions := services.NewSessionStore(time.Minute)
	app := drift.New()
	app.Use(VaultSession(sessions))
	app.Get("/vault", func(c *drift.Context) {
		_ = c.JSON(http.StatusOK, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/vault", nil)
	req.Header.Set(VaultSessionHeader, "anything")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	jwtSvc := newTestJWTService()
	userID := uuid.New()

	app := drift.New()
	app.Use(RequestLogger(logger))
	app.Use(Auth(jwtSvc))
	app.Get("/vault/credentials", func(c *drift.Context) {
		_ = c.JSON(http.StatusOK, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/vault/credentials", nil)
	token := generateTestToken(t, jwtSvc, userID, "user@example.com")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	out := buf.String()
	assert.Contains(t, out, `"method":"GET"`)
	assert.Contains(t, out, `"path":"/vault/credentials"`)
	assert.Contains(t, out, userID.String())
	assert.NotContains(t, out, token)
}
