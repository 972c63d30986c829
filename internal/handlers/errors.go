package handlers

import (
	"errors"

	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/dimitrije/credvault/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

const (
	statusLocked              = 423
	statusUnprocessableEntity = 422
)

// respondError maps a vault error onto a status code. Messages never carry
// field values or key material.
func respondError(c *drift.Context, logger zerolog.Logger, err error) {
	var validation *services.ValidationErrors
	var persistence *services.PersistenceError

	switch {
	case errors.Is(err, services.ErrInvalidPassword):
		c.Unauthorized("invalid credentials")
	case errors.Is(err, services.ErrVaultLocked):
		_ = c.JSON(statusLocked, dto.ErrorResponse{Code: "VAULT_LOCKED", Message: "vault is locked"})
	case errors.As(err, &validation):
		_ = c.JSON(statusUnprocessableEntity, dto.ValidationErrorResponse{
			Code:    "VALIDATION_FAILED",
			Message: "validation failed",
			Errors:  validation.Errors,
		})
	case errors.Is(err, services.ErrCredentialNotFound):
		c.NotFound("credential not found")
	case errors.Is(err, providers.ErrUnknownProvider):
		c.BadRequest("unknown provider")
	case errors.Is(err, services.ErrVersionConflict):
		_ = c.JSON(409, dto.ErrorResponse{Code: "VERSION_CONFLICT", Message: "credential has been modified"})
	case errors.Is(err, services.ErrDecryption):
		_ = c.JSON(409, dto.ErrorResponse{Code: "DECRYPTION_FAILED", Message: "credential could not be decrypted"})
	case errors.Is(err, services.ErrUnsupportedBackup):
		c.BadRequest("unsupported backup format")
	case errors.As(err, &persistence):
		logger.Error().Err(err).Str("op", persistence.Op).Msg("vault persistence failure")
		c.InternalServerError("storage failure")
	default:
		logger.Error().Err(err).Msg("unexpected vault error")
		c.InternalServerError("internal error")
	}
}
