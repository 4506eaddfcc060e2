package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS platform_connections (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		access_token TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NULL,
		scopes TEXT NOT NULL DEFAULT '',
		external_account_id TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		email TEXT NULL,
		is_connected BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, platform)
	)`,
	`CREATE TABLE IF NOT EXISTS publish_results (
		id BIGSERIAL PRIMARY KEY,
		post_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		external_post_id TEXT NULL,
		error_message TEXT NULL,
		published_at TIMESTAMPTZ NULL,
		attempt_id TEXT NOT NULL,
		attempt_count INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (post_id, platform)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_publish_results_user ON publish_results (user_id)`,
}

// EnsureSchema creates the PostgreSQL tables if they are missing. Safe to call at startup.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, ddl := range postgresSchema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
