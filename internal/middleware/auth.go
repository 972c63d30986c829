package middleware

import (
	"errors"
	"strings"

	"github.com/dimitrije/credvault/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const ClaimsKey = "claims"

var (
	errMissingAuthHeader = errors.New("missing authorization header")
	errBadAuthHeader     = errors.New("invalid authorization header format")
)

type TokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

// Auth resolves the caller's identity from a bearer token. It says nothing
// about whether the caller's vault is unlocked; see VaultSession.
func Auth(tokens TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.Unauthorized(err.Error())
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuthHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errBadAuthHeader
	}
	return token, nil
}

// GetClaims returns nil outside Auth.
func GetClaims(c *drift.Context) *services.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*services.Claims); ok {
			return claims
		}
	}
	return nil
}

func GetUserID(c *drift.Context) uuid.UUID {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.Email
	}
	return ""
}
