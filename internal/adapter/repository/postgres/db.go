package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=essentials sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// schema creates the essentials catalog and its price history.
// Prices are NUMERIC(10,2) so amounts never pass through floating point
var schema = []string{
	`CREATE TABLE IF NOT EXISTS essentials (
		id         UUID PRIMARY KEY,
		name       VARCHAR(256) NOT NULL,
		category   VARCHAR(100) NOT NULL,
		unit       VARCHAR(50)  NOT NULL,
		icon       VARCHAR(10)  NOT NULL DEFAULT '📦',
		created_at TIMESTAMPTZ  NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS essential_name_idx ON essentials(name)`,
	`CREATE INDEX IF NOT EXISTS essential_category_idx ON essentials(category)`,

	`CREATE TABLE IF NOT EXISTS price_entries (
		id           UUID PRIMARY KEY,
		essential_id UUID NOT NULL REFERENCES essentials(id) ON DELETE CASCADE,
		price        NUMERIC(10,2) NOT NULL CHECK (price > 0),
		location     VARCHAR(256),
		notes        TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS price_entry_essential_idx ON price_entries(essential_id)`,
	`CREATE INDEX IF NOT EXISTS price_entry_created_at_idx ON price_entries(created_at)`,
}

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
