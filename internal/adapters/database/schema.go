package database

import (
	"context"
	"fmt"
)

// Plain column types keep the DDL valid for both PostgreSQL and SQLite.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS diary_records (
		id TEXT PRIMARY KEY,
		seq BIGINT NOT NULL UNIQUE,
		fields TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_items (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		main TEXT NOT NULL DEFAULT '[]',
		minor TEXT NOT NULL DEFAULT '[]',
		trackers TEXT NOT NULL DEFAULT '[]',
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_meta (
		meta_key TEXT PRIMARY KEY,
		meta_value BIGINT NOT NULL
	)`,
}

// EnsureSchema creates the diary tables when they do not exist.
func EnsureSchema(ctx context.Context, client SQLClient) error {
	for _, stmt := range schemaStatements {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
