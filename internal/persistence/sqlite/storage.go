// Package sqlite implements the persistence repositories on SQLite using
// the modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"
)

// schema holds the DDL applied by Migrate, in dependency order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		disabled      INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		parent_group_id TEXT REFERENCES groups(id),
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		group_id   TEXT NOT NULL REFERENCES groups(id),
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS memberships (
		user_id    TEXT NOT NULL REFERENCES users(id),
		entity_id  TEXT NOT NULL,
		role       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (user_id, entity_id)
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id                  TEXT PRIMARY KEY,
		group_id            TEXT NOT NULL REFERENCES groups(id),
		project_id          TEXT REFERENCES projects(id),
		title               TEXT NOT NULL,
		description         TEXT,
		location_name       TEXT,
		latitude            REAL,
		longitude           REAL,
		starts_at           TEXT NOT NULL,
		ends_at             TEXT,
		late_threshold      TEXT,
		attendance_deadline TEXT,
		recurrence_id       TEXT,
		creator_id          TEXT NOT NULL REFERENCES users(id),
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_group_start
		ON schedules(group_id, starts_at)`,
	`CREATE TABLE IF NOT EXISTS recurrence_rules (
		id               TEXT PRIMARY KEY,
		group_id         TEXT NOT NULL REFERENCES groups(id),
		project_id       TEXT REFERENCES projects(id),
		frequency        INTEGER NOT NULL,
		weekdays         TEXT NOT NULL,
		starts_on        TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		title            TEXT NOT NULL,
		location_name    TEXT,
		end_kind         INTEGER NOT NULL,
		end_date         TEXT,
		end_count        INTEGER,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_records (
		id           TEXT PRIMARY KEY,
		schedule_id  TEXT NOT NULL REFERENCES schedules(id),
		user_id      TEXT NOT NULL REFERENCES users(id),
		status       TEXT NOT NULL,
		checked_at   TEXT NOT NULL,
		check_in_lat REAL,
		check_in_lng REAL,
		created_at   TEXT NOT NULL,
		UNIQUE (schedule_id, user_id)
	)`,
}

// Storage bundles the connection pool and repository constructors.
type Storage struct {
	pool *ConnectionPool
}

// Open opens the database at the given DSN.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{pool: pool}, nil
}

// Pool exposes the connection pool for repository construction.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Migrate applies the schema. Statements are idempotent, so Migrate is
// safe to call on every startup.
func (s *Storage) Migrate(ctx context.Context) error {
	for _, statement := range schema {
		if _, err := s.pool.DB().ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connections.
func (s *Storage) Close() error {
	return s.pool.Close()
}
