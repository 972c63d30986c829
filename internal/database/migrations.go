package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS vault_config (
		user_id UUID PRIMARY KEY,
		password_hash VARCHAR(128) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS vault_credentials (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES vault_config(user_id) ON DELETE CASCADE,
		provider VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		ciphertext BYTEA NOT NULL,
		nonce BYTEA NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		last_used_at TIMESTAMP WITH TIME ZONE,
		usage_count BIGINT NOT NULL DEFAULT 0,
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		version INTEGER NOT NULL DEFAULT 1,
		metadata JSONB NOT NULL DEFAULT '{}'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_vault_credentials_user_id ON vault_credentials(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_vault_credentials_user_provider ON vault_credentials(user_id, provider, created_at DESC)`,

	// No foreign key to vault_credentials: usage rows outlive deleted credentials.
	`CREATE TABLE IF NOT EXISTS vault_usage_logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		credential_id UUID NOT NULL,
		user_id UUID NOT NULL,
		provider VARCHAR(64) NOT NULL,
		endpoint TEXT NOT NULL,
		method VARCHAR(16) NOT NULL,
		status_code INTEGER NOT NULL,
		response_time_ms BIGINT NOT NULL,
		timestamp TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		metadata JSONB NOT NULL DEFAULT '{}'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_vault_usage_logs_user_id ON vault_usage_logs(user_id, timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_vault_usage_logs_credential_id ON vault_usage_logs(credential_id, timestamp DESC)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
