package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

type VerificationRepo struct {
	pool *pgxpool.Pool
}

func NewVerificationRepo(pool *pgxpool.Pool) *VerificationRepo {
	return &VerificationRepo{pool: pool}
}

// upsertActor ensures the actor row exists. A non-empty display name
// replaces the stored one.
func upsertActor(ctx context.Context, tx pgx.Tx, actor model.Actor) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO actors (id, display_name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name
		                        ELSE actors.display_name END`,
		actor.ID, actor.DisplayName)
	return err
}

// InsertVerification appends a vote row. Votes are never updated; an actor
// may vote on the same station any number of times.
func (r *VerificationRepo) InsertVerification(ctx context.Context, v model.Verification, actor model.Actor) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := upsertActor(ctx, tx, actor); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO verifications (id, station_id, actor_id, vote, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.StationID, v.ActorID, string(v.Vote), v.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// TallyVotes returns per-vote counts and the newest vote time for a station.
func (r *VerificationRepo) TallyVotes(ctx context.Context, stationID string, since time.Time) ([]model.VoteTally, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT vote, COUNT(*), MAX(created_at)
		FROM verifications
		WHERE station_id = $1 AND created_at > $2
		GROUP BY vote`,
		stationID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tallies []model.VoteTally
	for rows.Next() {
		var t model.VoteTally
		var vote string
		if err := rows.Scan(&vote, &t.Count, &t.LastAt); err != nil {
			return nil, err
		}
		t.Vote = model.Vote(vote)
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// ListHistory returns the most recent votes for a station with the voter's
// display name and trust points.
func (r *VerificationRepo) ListHistory(ctx context.Context, stationID string, limit int) ([]model.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT v.id, v.vote, v.created_at, v.actor_id,
		       COALESCE(a.display_name, ''), COALESCE(a.trust_points, 0)
		FROM verifications v
		LEFT JOIN actors a ON a.id = v.actor_id
		WHERE v.station_id = $1
		ORDER BY v.created_at DESC, v.id
		LIMIT $2`,
		stationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var vote string
		if err := rows.Scan(&e.ID, &vote, &e.CreatedAt, &e.ActorID, &e.ActorName, &e.TrustPoints); err != nil {
			return nil, err
		}
		e.Vote = model.Vote(vote)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
