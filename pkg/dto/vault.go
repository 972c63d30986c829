package dto

import (
	"time"

	"github.com/dimitrije/credvault/internal/providers"
)

type UnlockRequest struct {
	Password string `json:"password"`
}

type UnlockResponse struct {
	SessionToken string    `json:"session_token"`
	UnlockedAt   time.Time `json:"unlocked_at"`
}

type CreateCredentialRequest struct {
	Provider string            `json:"provider"`
	Name     string            `json:"name"`
	Fields   map[string]string `json:"fields"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// UpdateCredentialRequest leaves omitted members unchanged.
type UpdateCredentialRequest struct {
	Name      *string           `json:"name,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	IsEnabled *bool             `json:"is_enabled,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type RecordUsageRequest struct {
	Endpoint       string            `json:"endpoint"`
	Method         string            `json:"method"`
	StatusCode     int               `json:"status_code"`
	ResponseTimeMs int64             `json:"response_time_ms"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ImportBackupResponse struct {
	Imported int `json:"imported"`
}

type ValidationErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Errors  []providers.FieldError `json:"errors"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
