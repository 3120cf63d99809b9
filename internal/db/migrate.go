package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
)

// postgresMigrations are applied in order; index+1 is the schema version.
// Append only.
var postgresMigrations = []string{
	`
	CREATE TABLE IF NOT EXISTS stations (
		id                 VARCHAR(64) PRIMARY KEY,
		name               TEXT        NOT NULL DEFAULT '',
		admin_status       VARCHAR(20) NOT NULL DEFAULT 'OPERATIONAL',
		available_chargers INTEGER     NOT NULL DEFAULT 0,
		total_chargers     INTEGER     NOT NULL DEFAULT 0,
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS actors (
		id           VARCHAR(64) PRIMARY KEY,
		display_name TEXT        NOT NULL DEFAULT '',
		trust_points INTEGER     NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS verifications (
		id         VARCHAR(36) PRIMARY KEY,
		station_id VARCHAR(64) NOT NULL REFERENCES stations(id),
		actor_id   VARCHAR(64) NOT NULL REFERENCES actors(id),
		vote       VARCHAR(16) NOT NULL CHECK (vote IN ('WORKING', 'NOT_WORKING', 'BUSY')),
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_verifications_station_created
		ON verifications (station_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS reports (
		id               VARCHAR(36) PRIMARY KEY,
		station_id       VARCHAR(64) NOT NULL REFERENCES stations(id),
		actor_id         VARCHAR(64) NULL,
		reason           VARCHAR(32) NOT NULL,
		details          TEXT        NOT NULL DEFAULT '',
		resolution_state VARCHAR(16) NOT NULL DEFAULT 'open'
			CHECK (resolution_state IN ('open', 'resolved', 'rejected', 'confirmed')),
		created_at       TIMESTAMPTZ NOT NULL,
		resolved_at      TIMESTAMPTZ NULL,
		resolved_by      VARCHAR(64) NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_station_state_created
		ON reports (station_id, resolution_state, created_at DESC);

	CREATE TABLE IF NOT EXISTS trust_events (
		id         VARCHAR(36) PRIMARY KEY,
		actor_id   VARCHAR(64) NOT NULL REFERENCES actors(id),
		event_type VARCHAR(32) NOT NULL,
		station_id VARCHAR(64) NULL,
		reason     TEXT        NULL,
		delta      SMALLINT    NOT NULL,
		dedup_key  CHAR(64)    NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trust_events_dedup
		ON trust_events (dedup_key, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_trust_events_actor
		ON trust_events (actor_id, created_at DESC);

	-- One control row per dedup key; locked FOR UPDATE to serialize the
	-- window check and insert of trust events.
	CREATE TABLE IF NOT EXISTS trust_event_locks (
		dedup_key  CHAR(64)    PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

// Migrate ensures the Postgres schema exists and is at the latest version.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}

	for i := current; i < len(postgresMigrations); i++ {
		version := i + 1
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("migrate: begin v%d: %w", version, err)
		}
		if _, err := tx.Exec(ctx, postgresMigrations[i]); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("migrate: apply v%d: %w", version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("migrate: record v%d: %w", version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("migrate: commit v%d: %w", version, err)
		}
		logger.Log.Info().Int("version", version).Msg("schema migrated")
	}
	return nil
}
