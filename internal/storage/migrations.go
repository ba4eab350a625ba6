package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					is_deleted INTEGER NOT NULL DEFAULT 0
				)`,
				// Name uniqueness is only enforced among live categories; a
				// soft-deleted category may share a name with an active one.
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_active_name
					ON categories(name) WHERE is_deleted = 0`,

				`CREATE TABLE IF NOT EXISTS expenses (
					id TEXT PRIMARY KEY,
					amount REAL NOT NULL CHECK (amount >= 0),
					description TEXT NOT NULL DEFAULT '',
					date DATETIME NOT NULL,
					category_id INTEGER NOT NULL,
					FOREIGN KEY (category_id) REFERENCES categories(id)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_expenses_category ON expenses(category_id)`,
				`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date)`,

				// Single-slot undo register; slot = 1 is the only row ever
				`CREATE TABLE IF NOT EXISTS undo_snapshot (
					slot INTEGER PRIMARY KEY CHECK (slot = 1),
					category_id INTEGER NOT NULL,
					category_name TEXT NOT NULL,
					category_created_at DATETIME NOT NULL,
					expenses TEXT NOT NULL DEFAULT '[]'
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed starter categories",
		Up: func(tx *sql.Tx) error {
			var count int
			if err := tx.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
				return fmt.Errorf("failed to count categories: %w", err)
			}
			if count > 0 {
				return nil
			}

			for _, name := range []string{"Business", "Entertainment", "Home", "Personal"} {
				if _, err := tx.Exec(
					`INSERT INTO categories (name, is_deleted) VALUES (?, 0)`, name,
				); err != nil {
					return fmt.Errorf("failed to seed category %q: %w", name, err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version. It is
// idempotent; already-applied migrations are skipped.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}

		// PRAGMA doesn't support placeholders
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
