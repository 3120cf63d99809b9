package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

const reportColumns = `id, station_id, actor_id, reason, details, resolution_state, created_at, resolved_at, resolved_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*model.Report, error) {
	var rep model.Report
	var actorID, resolvedBy sql.NullString
	var state string
	var createdAt int64
	var resolvedAt sql.NullInt64
	err := row.Scan(&rep.ID, &rep.StationID, &actorID, &rep.Reason, &rep.Details,
		&state, &createdAt, &resolvedAt, &resolvedBy)
	if err != nil {
		return nil, err
	}
	rep.ActorID = nullableString(actorID)
	rep.ResolutionState = model.ResolutionState(state)
	rep.CreatedAt = fromMillis(createdAt)
	rep.ResolvedAt = nullableMillis(resolvedAt)
	rep.ResolvedBy = nullableString(resolvedBy)
	return &rep, nil
}

// InsertReport stores a new report. Anonymous reports carry no actor.
func (s *Store) InsertReport(ctx context.Context, rep model.Report, actor *model.Actor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert report: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if actor != nil {
		if err := upsertActor(ctx, tx, *actor, rep.CreatedAt); err != nil {
			return fmt.Errorf("insert report: actor: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, station_id, actor_id, reason, details, resolution_state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.StationID, stringOrNil(rep.ActorID), rep.Reason, rep.Details,
		string(rep.ResolutionState), toMillis(rep.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert report: insert: %w", err)
	}
	return tx.Commit()
}

// FindReport returns a report by ID.
func (s *Store) FindReport(ctx context.Context, reportID string) (*model.Report, error) {
	rep, err := scanReport(s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, reportID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", reportID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return rep, nil
}

// ResolveReport moves an open report to a terminal state with one
// conditional UPDATE.
func (s *Store) ResolveReport(ctx context.Context, reportID string, state model.ResolutionState, by string, at time.Time) (*model.Report, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET resolution_state = ?, resolved_at = ?, resolved_by = ?
		WHERE id = ? AND resolution_state = 'open'`,
		string(state), toMillis(at), by, reportID)
	if err != nil {
		return nil, false, fmt.Errorf("resolve report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("resolve report: rows affected: %w", err)
	}

	rep, err := s.FindReport(ctx, reportID)
	if err != nil {
		return nil, false, err
	}
	return rep, n == 1, nil
}

// InsertTrustEventIfAbsent writes ev unless an event with the same dedup key
// was created after cutoff. The single-connection handle makes the
// transaction exclusive, so the check and the insert cannot interleave with
// another attempt.
func (s *Store) InsertTrustEventIfAbsent(ctx context.Context, ev model.TrustEvent, dedupKey string, cutoff time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("insert trust event: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM trust_events WHERE dedup_key = ? AND created_at > ?)`,
		dedupKey, toMillis(cutoff)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("insert trust event: window check: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := upsertActor(ctx, tx, model.Actor{ID: ev.ActorID}, ev.CreatedAt); err != nil {
		return false, fmt.Errorf("insert trust event: actor: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO trust_events (id, actor_id, event_type, station_id, reason, delta, dedup_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ActorID, string(ev.EventType), stringOrNil(ev.StationID), stringOrNil(ev.Reason),
		ev.Delta, dedupKey, toMillis(ev.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("insert trust event: insert: %w", err)
	}
	_, err = tx.ExecContext(ctx, `UPDATE actors SET trust_points = trust_points + ? WHERE id = ?`,
		ev.Delta, ev.ActorID)
	if err != nil {
		return false, fmt.Errorf("insert trust event: trust points: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("insert trust event: commit: %w", err)
	}
	return true, nil
}

// ListActorEvents returns an actor's most recent trust events, newest first.
func (s *Store) ListActorEvents(ctx context.Context, actorID string, limit int) ([]model.TrustEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, event_type, station_id, reason, delta, created_at
		FROM trust_events
		WHERE actor_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?`, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list actor events: %w", err)
	}
	defer rows.Close()

	var events []model.TrustEvent
	for rows.Next() {
		var ev model.TrustEvent
		var eventType string
		var stationID, reason sql.NullString
		var createdAt int64
		if err := rows.Scan(&ev.ID, &ev.ActorID, &eventType, &stationID, &reason, &ev.Delta, &createdAt); err != nil {
			return nil, fmt.Errorf("list actor events: scan: %w", err)
		}
		ev.EventType = model.TrustEventType(eventType)
		ev.StationID = nullableString(stationID)
		ev.Reason = nullableString(reason)
		ev.CreatedAt = fromMillis(createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// FindActor returns an actor profile by ID.
func (s *Store) FindActor(ctx context.Context, actorID string) (*model.ActorRecord, error) {
	var a model.ActorRecord
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, trust_points, created_at FROM actors WHERE id = ?`, actorID).
		Scan(&a.ID, &a.DisplayName, &a.TrustPoints, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("actor %s: %w", actorID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("find actor: %w", err)
	}
	a.CreatedAt = fromMillis(createdAt)
	return &a, nil
}
