package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

type ActorRepo struct {
	pool *pgxpool.Pool
}

func NewActorRepo(pool *pgxpool.Pool) *ActorRepo {
	return &ActorRepo{pool: pool}
}

// FindActor returns a single actor profile by ID.
func (r *ActorRepo) FindActor(ctx context.Context, actorID string) (*model.ActorRecord, error) {
	var a model.ActorRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, display_name, trust_points, created_at
		FROM actors
		WHERE id = $1`, actorID).Scan(&a.ID, &a.DisplayName, &a.TrustPoints, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("actor %s: %w", actorID, model.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}
