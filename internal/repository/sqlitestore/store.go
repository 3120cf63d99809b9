// Package sqlitestore is an embedded, single-file backend for the trust
// engine. It backs local development and the DB-level tests; production runs
// on the Postgres repositories.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

// Store provides SQLite-backed persistence for stations, votes, reports and
// trust events.
//
// The handle is limited to one connection. Every transaction therefore runs
// alone, which is what serializes the trust-event window check and insert.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 5000;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("open sqlite: %s: %w", pragma, err)
		}
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullableMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func stringOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// UpsertStation inserts or replaces a station record. The station catalog
// owns these rows; this is how it syncs them into the embedded store.
func (s *Store) UpsertStation(ctx context.Context, st model.Station) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stations (id, name, admin_status, available_chargers, total_chargers, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			admin_status = excluded.admin_status,
			available_chargers = excluded.available_chargers,
			total_chargers = excluded.total_chargers,
			updated_at = excluded.updated_at`,
		st.ID, st.Name, string(st.AdminStatus), st.AvailableChargers, st.TotalChargers, toMillis(st.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert station: %w", err)
	}
	return nil
}

// FindStation returns a station by ID.
func (s *Store) FindStation(ctx context.Context, stationID string) (*model.Station, error) {
	var st model.Station
	var adminStatus string
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, admin_status, available_chargers, total_chargers, updated_at
		FROM stations WHERE id = ?`, stationID).
		Scan(&st.ID, &st.Name, &adminStatus, &st.AvailableChargers, &st.TotalChargers, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("station %s: %w", stationID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("find station: %w", err)
	}
	st.AdminStatus = model.AdminStatus(adminStatus)
	st.UpdatedAt = fromMillis(updatedAt)
	return &st, nil
}

func upsertActor(ctx context.Context, tx *sql.Tx, actor model.Actor, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO actors (id, display_name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = CASE WHEN excluded.display_name <> '' THEN excluded.display_name
			                    ELSE actors.display_name END`,
		actor.ID, actor.DisplayName, toMillis(at))
	return err
}

// InsertVerification appends a vote row.
func (s *Store) InsertVerification(ctx context.Context, v model.Verification, actor model.Actor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert verification: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := upsertActor(ctx, tx, actor, v.CreatedAt); err != nil {
		return fmt.Errorf("insert verification: actor: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO verifications (id, station_id, actor_id, vote, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.StationID, v.ActorID, string(v.Vote), toMillis(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert verification: insert: %w", err)
	}
	return tx.Commit()
}

// TallyVotes returns per-vote counts for a station created after since.
func (s *Store) TallyVotes(ctx context.Context, stationID string, since time.Time) ([]model.VoteTally, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vote, COUNT(*), MAX(created_at)
		FROM verifications
		WHERE station_id = ? AND created_at > ?
		GROUP BY vote`, stationID, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("tally votes: %w", err)
	}
	defer rows.Close()

	var tallies []model.VoteTally
	for rows.Next() {
		var vote string
		var count int
		var lastAt int64
		if err := rows.Scan(&vote, &count, &lastAt); err != nil {
			return nil, fmt.Errorf("tally votes: scan: %w", err)
		}
		tallies = append(tallies, model.VoteTally{Vote: model.Vote(vote), Count: count, LastAt: fromMillis(lastAt)})
	}
	return tallies, rows.Err()
}

// ListHistory returns the newest votes for a station with voter profiles.
func (s *Store) ListHistory(ctx context.Context, stationID string, limit int) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.vote, v.created_at, v.actor_id,
		       COALESCE(a.display_name, ''), COALESCE(a.trust_points, 0)
		FROM verifications v
		LEFT JOIN actors a ON a.id = v.actor_id
		WHERE v.station_id = ?
		ORDER BY v.created_at DESC, v.id
		LIMIT ?`, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var vote string
		var createdAt int64
		if err := rows.Scan(&e.ID, &vote, &createdAt, &e.ActorID, &e.ActorName, &e.TrustPoints); err != nil {
			return nil, fmt.Errorf("list history: scan: %w", err)
		}
		e.Vote = model.Vote(vote)
		e.CreatedAt = fromMillis(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ScoreInputs reads the verification and report facts behind a trust score.
func (s *Store) ScoreInputs(ctx context.Context, stationID string, recentSince, reportSince time.Time) (model.TrustScoreInputs, error) {
	var in model.TrustScoreInputs
	var lastVerification, lastReport sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM verifications WHERE station_id = ?1),
			(SELECT COUNT(*) FROM verifications WHERE station_id = ?1 AND created_at > ?2),
			(SELECT MAX(created_at) FROM verifications WHERE station_id = ?1),
			(SELECT COUNT(*) FROM reports
			  WHERE station_id = ?1 AND resolution_state = 'open' AND created_at > ?3),
			(SELECT MAX(created_at) FROM reports WHERE station_id = ?1)`,
		stationID, toMillis(recentSince), toMillis(reportSince)).
		Scan(&in.TotalVerifications, &in.RecentVerifications, &lastVerification, &in.OpenRecentReports, &lastReport)
	if err != nil {
		return model.TrustScoreInputs{}, fmt.Errorf("score inputs: %w", err)
	}
	in.LastVerificationAt = nullableMillis(lastVerification)
	in.LastReportAt = nullableMillis(lastReport)
	return in, nil
}
