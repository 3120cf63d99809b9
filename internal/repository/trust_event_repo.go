package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

type TrustEventRepo struct {
	pool *pgxpool.Pool
}

func NewTrustEventRepo(pool *pgxpool.Pool) *TrustEventRepo {
	return &TrustEventRepo{pool: pool}
}

// InsertTrustEventIfAbsent writes ev unless an event with the same dedup key
// was created after cutoff.
//
// The per-key control row in trust_event_locks is locked FOR UPDATE before
// the window check, so concurrent attempts for the same key queue behind
// each other and at most one of them inserts.
func (r *TrustEventRepo) InsertTrustEventIfAbsent(ctx context.Context, ev model.TrustEvent, dedupKey string, cutoff time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO actors (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, ev.ActorID)
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trust_event_locks (dedup_key) VALUES ($1)
		ON CONFLICT (dedup_key) DO NOTHING`, dedupKey)
	if err != nil {
		return false, err
	}

	var locked string
	err = tx.QueryRow(ctx, `
		SELECT dedup_key FROM trust_event_locks WHERE dedup_key = $1 FOR UPDATE`,
		dedupKey).Scan(&locked)
	if err != nil {
		return false, err
	}

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM trust_events WHERE dedup_key = $1 AND created_at > $2
		)`, dedupKey, cutoff).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trust_events (id, actor_id, event_type, station_id, reason, delta, dedup_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID, ev.ActorID, string(ev.EventType), ev.StationID, ev.Reason, ev.Delta, dedupKey, ev.CreatedAt)
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx, `UPDATE actors SET trust_points = trust_points + $2 WHERE id = $1`,
		ev.ActorID, ev.Delta)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ListActorEvents returns an actor's most recent trust events, newest first.
func (r *TrustEventRepo) ListActorEvents(ctx context.Context, actorID string, limit int) ([]model.TrustEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, event_type, station_id, reason, delta, created_at
		FROM trust_events
		WHERE actor_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`,
		actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.TrustEvent
	for rows.Next() {
		var ev model.TrustEvent
		var eventType string
		if err := rows.Scan(&ev.ID, &ev.ActorID, &eventType, &ev.StationID, &ev.Reason, &ev.Delta, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.EventType = model.TrustEventType(eventType)
		events = append(events, ev)
	}
	return events, rows.Err()
}
