package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dimitrije/credvault/internal/crypto"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/dimitrije/credvault/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		providersCategory = ""
		tokenUser = ""
		tokenEmail = ""
		vaultUser = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestProvidersCommand(t *testing.T) {
	out, err := execute(t, "providers")

	require.NoError(t, err)
	assert.Contains(t, out, "openai")
	assert.Contains(t, out, "home_assistant")
	assert.Contains(t, out, "apiKey*")
}

func TestProvidersCommand_Category(t *testing.T) {
	out, err := execute(t, "providers", "--category", "dev_tools")

	require.NoError(t, err)
	assert.Contains(t, out, "github")
	assert.NotContains(t, out, "openai")
}

func TestProvidersCommand_UnknownCategory(t *testing.T) {
	_, err := execute(t, "providers", "--category", "nope")

	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "openai", "apiKey=sk-abc123")

	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidateCommand_ReportsFields(t *testing.T) {
	out, err := execute(t, "validate", "openai", "apiKey=nope")

	require.Error(t, err)
	assert.Contains(t, out, "apiKey")
}

func TestValidateCommand_BadArgument(t *testing.T) {
	_, err := execute(t, "validate", "openai", "apiKey")

	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	userID := uuid.New()

	out, err := execute(t, "token", "--user", userID.String(), "--email", "dev@example.com")
	require.NoError(t, err)

	var token string
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "token:"); ok {
			token = strings.TrimSpace(rest)
		}
	}
	require.NotEmpty(t, token)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte("cli-secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, userID.String(), claims["user_id"])
	assert.Equal(t, "dev@example.com", claims["email"])
}

func TestTokenCommand_InvalidUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	_, err := execute(t, "token", "--user", "not-a-uuid")

	assert.Error(t, err)
}

func TestReadNewPassword_FromEnv(t *testing.T) {
	t.Setenv("VAULT_PASSWORD", "old-secret")
	t.Setenv("VAULT_NEW_PASSWORD", "new-secret")

	pw, err := readNewPassword("old-secret")

	require.NoError(t, err)
	assert.Equal(t, "new-secret", pw)
}

func TestReadNewPassword_UnattendedRequiresNewPassword(t *testing.T) {
	t.Setenv("VAULT_PASSWORD", "old-secret")

	pw, err := readNewPassword("old-secret")

	assert.ErrorIs(t, err, errNewPasswordRequired)
	assert.Empty(t, pw)
}

func TestReadNewPassword_RejectsCurrentPassword(t *testing.T) {
	t.Setenv("VAULT_PASSWORD", "old-secret")
	t.Setenv("VAULT_NEW_PASSWORD", "old-secret")

	_, err := readNewPassword("old-secret")

	assert.ErrorIs(t, err, errSamePassword)
}

func TestVaultCommand_InvalidUser(t *testing.T) {
	_, err := execute(t, "stats", "--user", "not-a-uuid")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid user id")
}

func newMemoryVault(t *testing.T) (*services.VaultService, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return services.NewVaultService(st, providers.Default(), crypto.NewEngine(0), nil, zerolog.Nop()), st
}

func TestOpenVault_UnknownUserCreatesNothing(t *testing.T) {
	svc, st := newMemoryVault(t)
	ctx := context.Background()
	userID := uuid.New()
	ran := false

	err := openVault(ctx, svc, userID, "typed-password", func(context.Context, *services.VaultService, *services.Session, string) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, err, services.ErrInvalidPassword)
	assert.False(t, ran)
	_, err = st.GetVaultConfig(ctx, userID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOpenVault_ExistingVault(t *testing.T) {
	svc, _ := newMemoryVault(t)
	ctx := context.Background()
	userID := uuid.New()
	created, err := svc.Unlock(ctx, userID, "pw")
	require.NoError(t, err)
	svc.Lock(created)

	var held *services.Session
	err = openVault(ctx, svc, userID, "pw", func(_ context.Context, _ *services.VaultService, sess *services.Session, password string) error {
		held = sess
		assert.False(t, sess.IsLocked())
		assert.Equal(t, "pw", password)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, held.IsLocked())
}
