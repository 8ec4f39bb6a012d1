// Package sqlite provides the local mirror store for taskmirror.
// Snapshots of fetched task views and the notification log survive
// restarts so the consumer surface warm-starts before the first ledger
// round-trip. Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/mirror.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "mirror.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Mirrored task views — last successful fetch per task id
		`CREATE TABLE IF NOT EXISTS task_snapshots (
			task_id          INTEGER PRIMARY KEY,
			status           TEXT NOT NULL,
			title            TEXT NOT NULL DEFAULT '',
			description      TEXT NOT NULL DEFAULT '',
			reward           TEXT NOT NULL DEFAULT '0',
			end_date         TEXT NOT NULL DEFAULT '',
			authorized_roles TEXT NOT NULL DEFAULT '',
			creator_role     TEXT NOT NULL DEFAULT '',
			assignee         TEXT NOT NULL DEFAULT '',
			assignee_display TEXT NOT NULL DEFAULT '',
			metadata         TEXT NOT NULL DEFAULT '',
			fetched_at       INTEGER NOT NULL
		)`,

		// Notification feed (info / warning / error)
		`CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT PRIMARY KEY,
			severity     TEXT NOT NULL,
			message      TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			acknowledged BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_pending
			ON notifications (acknowledged, created_at)`,
	}

	for i, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
