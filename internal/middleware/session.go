package middleware

import (
	"github.com/dimitrije/credvault/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	VaultSessionHeader = "X-Vault-Session"
	VaultSessionKey    = "vault_session"
)

type SessionLookup interface {
	Get(token string, userID uuid.UUID) (*services.Session, error)
}

// VaultSession must run after Auth. It resolves the X-Vault-Session header to
// the caller's unlocked session and answers 423 when there is none.
func VaultSession(sessions SessionLookup) drift.HandlerFunc {
	return func(c *drift.Context) {
		userID := GetUserID(c)
		if userID == uuid.Nil {
			c.Unauthorized("not authenticated")
			return
		}

		token := c.GetHeader(VaultSessionHeader)
		if token == "" {
			vaultLocked(c)
			return
		}

		sess, err := sessions.Get(token, userID)
		if err != nil {
			vaultLocked(c)
			return
		}

		c.Set(VaultSessionKey, sess)
		c.Next()
	}
}

func GetVaultSession(c *drift.Context) *services.Session {
	if v, ok := c.Get(VaultSessionKey); ok {
		if sess, ok := v.(*services.Session); ok {
			return sess
		}
	}
	return nil
}

func vaultLocked(c *drift.Context) {
	_ = c.JSON(423, map[string]string{
		"code":    "VAULT_LOCKED",
		"message": "vault is locked",
	})
	c.Abort()
}
