package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps a single-node SQLite database
type DB struct {
	*sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
// Foreign keys are enforced so deleting an essential removes its price entries
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time; readers wait on the same connection
	db.SetMaxOpenConns(1)

	// WAL mode for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	d := &DB{DB: db}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

func (db *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS essentials (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			category   TEXT NOT NULL,
			unit       TEXT NOT NULL,
			icon       TEXT NOT NULL DEFAULT '📦',
			created_at INTEGER NOT NULL,
			updated_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS essential_name_idx ON essentials(name)`,
		`CREATE INDEX IF NOT EXISTS essential_category_idx ON essentials(category)`,

		`CREATE TABLE IF NOT EXISTS price_entries (
			id           TEXT PRIMARY KEY,
			essential_id TEXT NOT NULL REFERENCES essentials(id) ON DELETE CASCADE,
			price        TEXT NOT NULL,
			location     TEXT,
			notes        TEXT,
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS price_entry_essential_idx ON price_entries(essential_id, created_at)`,
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
