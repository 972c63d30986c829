package models

import (
	"time"

	"github.com/dimitrije/credvault/internal/providers"
	"github.com/google/uuid"
)

type UsageLogEntry struct {
	ID             uuid.UUID         `json:"id"`
	CredentialID   uuid.UUID         `json:"credential_id"`
	UserID         uuid.UUID         `json:"user_id"`
	Provider       providers.ID      `json:"provider"`
	Endpoint       string            `json:"endpoint"`
	Method         string            `json:"method"`
	StatusCode     int               `json:"status_code"`
	ResponseTimeMs int64             `json:"response_time_ms"`
	Timestamp      time.Time         `json:"timestamp"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ProviderStats covers live credentials only. Usage logs of deleted
// credentials still count towards VaultStats.LastActivity.
type ProviderStats struct {
	Keys          int     `json:"keys"`
	Usage         int64   `json:"usage"`
	ErrorCount    int64   `json:"error_count"`
	AvgResponseMs float64 `json:"avg_response_ms"`
}

type VaultStats struct {
	TotalKeys         int                            `json:"total_keys"`
	ActiveKeys        int                            `json:"active_keys"`
	TotalUsage        int64                          `json:"total_usage"`
	ProviderBreakdown map[providers.ID]ProviderStats `json:"provider_breakdown"`
	CategoryBreakdown map[providers.Category]int     `json:"category_breakdown"`
	LastActivity      *time.Time                     `json:"last_activity,omitempty"`
}
