package sqlitestore

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// Migrate ensures the SQLite schema exists and is upgraded to SchemaVersion.
// Timestamps are stored as Unix milliseconds so range predicates compare
// integers.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	statements := []struct {
		name string
		sql  string
	}{
		{"stations", `
			CREATE TABLE IF NOT EXISTS stations (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				admin_status TEXT NOT NULL DEFAULT 'OPERATIONAL',
				available_chargers INTEGER NOT NULL DEFAULT 0,
				total_chargers INTEGER NOT NULL DEFAULT 0,
				updated_at INTEGER NOT NULL
			);`},
		{"actors", `
			CREATE TABLE IF NOT EXISTS actors (
				id TEXT PRIMARY KEY,
				display_name TEXT NOT NULL DEFAULT '',
				trust_points INTEGER NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL
			);`},
		{"verifications", `
			CREATE TABLE IF NOT EXISTS verifications (
				id TEXT PRIMARY KEY,
				station_id TEXT NOT NULL REFERENCES stations(id),
				actor_id TEXT NOT NULL REFERENCES actors(id),
				vote TEXT NOT NULL CHECK (vote IN ('WORKING', 'NOT_WORKING', 'BUSY')),
				created_at INTEGER NOT NULL
			);`},
		{"verifications index", `
			CREATE INDEX IF NOT EXISTS idx_verifications_station_created
			ON verifications (station_id, created_at);`},
		{"reports", `
			CREATE TABLE IF NOT EXISTS reports (
				id TEXT PRIMARY KEY,
				station_id TEXT NOT NULL REFERENCES stations(id),
				actor_id TEXT NULL,
				reason TEXT NOT NULL,
				details TEXT NOT NULL DEFAULT '',
				resolution_state TEXT NOT NULL DEFAULT 'open'
					CHECK (resolution_state IN ('open', 'resolved', 'rejected', 'confirmed')),
				created_at INTEGER NOT NULL,
				resolved_at INTEGER NULL,
				resolved_by TEXT NULL
			);`},
		{"reports index", `
			CREATE INDEX IF NOT EXISTS idx_reports_station_state_created
			ON reports (station_id, resolution_state, created_at);`},
		{"trust_events", `
			CREATE TABLE IF NOT EXISTS trust_events (
				id TEXT PRIMARY KEY,
				actor_id TEXT NOT NULL REFERENCES actors(id),
				event_type TEXT NOT NULL,
				station_id TEXT NULL,
				reason TEXT NULL,
				delta INTEGER NOT NULL,
				dedup_key TEXT NOT NULL,
				created_at INTEGER NOT NULL
			);`},
		{"trust_events dedup index", `
			CREATE INDEX IF NOT EXISTS idx_trust_events_dedup
			ON trust_events (dedup_key, created_at);`},
		{"trust_events actor index", `
			CREATE INDEX IF NOT EXISTS idx_trust_events_actor
			ON trust_events (actor_id, created_at);`},
	}
	for _, st := range statements {
		if _, err := tx.Exec(st.sql); err != nil {
			return fmt.Errorf("migrate: create %s: %w", st.name, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}
