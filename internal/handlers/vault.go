package handlers

import (
	"strconv"
	"strings"

	"github.com/dimitrije/credvault/internal/middleware"
	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/dimitrije/credvault/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

const (
	defaultUsageLimit = 100
	maxUsageLimit     = 1000
)

type VaultHandler struct {
	vaultService VaultServiceInterface
	sessions     SessionStoreInterface
	logger       zerolog.Logger
}

func NewVaultHandler(vaultService VaultServiceInterface, sessions SessionStoreInterface, logger zerolog.Logger) *VaultHandler {
	return &VaultHandler{
		vaultService: vaultService,
		sessions:     sessions,
		logger:       logger,
	}
}

func (h *VaultHandler) Unlock(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UnlockRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	sess, err := h.vaultService.Unlock(c.Request.Context(), userID, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := h.sessions.Put(sess)
	if err != nil {
		h.vaultService.Lock(sess)
		h.logger.Error().Err(err).Msg("failed to issue vault session")
		c.InternalServerError("failed to issue session")
		return
	}

	_ = c.JSON(200, dto.UnlockResponse{
		SessionToken: token,
		UnlockedAt:   sess.UnlockedAt,
	})
}

// Lock is idempotent. Without a session header every session of the caller is
// locked.
func (h *VaultHandler) Lock(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if token := c.GetHeader(middleware.VaultSessionHeader); token != "" {
		h.sessions.Remove(token, userID)
	} else {
		h.sessions.LockUser(userID)
	}

	_ = c.JSON(200, map[string]string{"status": "locked"})
}

func (h *VaultHandler) ListCredentials(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	creds, err := h.vaultService.ListCredentials(c.Request.Context(), sess)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, creds)
}

func (h *VaultHandler) CreateCredential(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	var req dto.CreateCredentialRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Provider) == "" {
		c.BadRequest("provider is required")
		return
	}

	info, err := h.vaultService.StoreCredential(c.Request.Context(), sess, services.NewCredential{
		Provider: providers.ID(strings.ToLower(strings.TrimSpace(req.Provider))),
		Name:     req.Name,
		Fields:   req.Fields,
		Metadata: req.Metadata,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(201, info)
}

func (h *VaultHandler) GetCredential(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	id, ok := credentialID(c)
	if !ok {
		return
	}

	cred, err := h.vaultService.GetCredential(c.Request.Context(), sess, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, cred)
}

func (h *VaultHandler) GetCredentialByProvider(c *drift.Context) {
	sess := middleware.GetVaultSession(c)
	provider := providers.ID(strings.ToLower(c.Param("provider")))

	cred, err := h.vaultService.GetCredentialByProvider(c.Request.Context(), sess, provider)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	_ = c.JSON(200, cred)
}

func (h *VaultHandler) UpdateCredential(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	id, ok := credentialID(c)
	if !ok {
		return
	}

	var req dto.UpdateCredentialRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	info, err := h.vaultService.UpdateCredential(c.Request.Context(), sess, id, services.CredentialUpdate{
		Name:      req.Name,
		Fields:    req.Fields,
		IsEnabled: req.IsEnabled,
		Metadata:  req.Metadata,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, info)
}

func (h *VaultHandler) DeleteCredential(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	id, ok := credentialID(c)
	if !ok {
		return
	}

	if err := h.vaultService.DeleteCredential(c.Request.Context(), sess, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "credential deleted"})
}

func (h *VaultHandler) TestCredential(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	id, ok := credentialID(c)
	if !ok {
		return
	}

	result, err := h.vaultService.TestCredential(c.Request.Context(), sess, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, result)
}

func (h *VaultHandler) RecordUsage(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	id, ok := credentialID(c)
	if !ok {
		return
	}

	var req dto.RecordUsageRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Endpoint == "" || req.Method == "" {
		c.BadRequest("endpoint and method are required")
		return
	}

	entry, err := h.vaultService.LogUsage(c.Request.Context(), sess, id, services.UsageRecord{
		Endpoint:       req.Endpoint,
		Method:         strings.ToUpper(req.Method),
		StatusCode:     req.StatusCode,
		ResponseTimeMs: req.ResponseTimeMs,
		Metadata:       req.Metadata,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(201, entry)
}

func (h *VaultHandler) ListCredentialUsage(c *drift.Context) {
	id, ok := credentialID(c)
	if !ok {
		return
	}
	h.listUsage(c, &id)
}

func (h *VaultHandler) ListUsage(c *drift.Context) {
	h.listUsage(c, nil)
}

func (h *VaultHandler) listUsage(c *drift.Context, credID *uuid.UUID) {
	sess := middleware.GetVaultSession(c)

	limit := defaultUsageLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.BadRequest("invalid limit")
			return
		}
		limit = min(n, maxUsageLimit)
	}

	logs, err := h.vaultService.ListUsage(c.Request.Context(), sess, credID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, logs)
}

func (h *VaultHandler) GetStats(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	stats, err := h.vaultService.GetStats(c.Request.Context(), sess)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, stats)
}

func (h *VaultHandler) ChangePassword(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	var req dto.ChangePasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if err := h.vaultService.ChangeMasterPassword(c.Request.Context(), sess, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "master password changed"})
}

func (h *VaultHandler) ExportBackup(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	blob, err := h.vaultService.ExportBackup(c.Request.Context(), sess)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, blob)
}

func (h *VaultHandler) ImportBackup(c *drift.Context) {
	sess := middleware.GetVaultSession(c)

	var blob models.BackupBlob
	if err := c.BindJSON(&blob); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	imported, err := h.vaultService.ImportBackup(c.Request.Context(), sess, &blob)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	_ = c.JSON(200, dto.ImportBackupResponse{Imported: imported})
}

func credentialID(c *drift.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid credential id")
		return uuid.Nil, false
	}
	return id, true
}
