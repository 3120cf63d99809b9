package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

const reportColumns = `id, station_id, actor_id, reason, details, resolution_state, created_at, resolved_at, resolved_by`

func scanReport(row pgx.Row) (*model.Report, error) {
	var rep model.Report
	var state string
	err := row.Scan(&rep.ID, &rep.StationID, &rep.ActorID, &rep.Reason, &rep.Details,
		&state, &rep.CreatedAt, &rep.ResolvedAt, &rep.ResolvedBy)
	if err != nil {
		return nil, err
	}
	rep.ResolutionState = model.ResolutionState(state)
	return &rep, nil
}

// InsertReport stores a new open report. Anonymous reports carry no actor.
func (r *ReportRepo) InsertReport(ctx context.Context, rep model.Report, actor *model.Actor) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if actor != nil {
		if err := upsertActor(ctx, tx, *actor); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reports (id, station_id, actor_id, reason, details, resolution_state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rep.ID, rep.StationID, rep.ActorID, rep.Reason, rep.Details, string(rep.ResolutionState), rep.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindReport returns a single report by ID.
func (r *ReportRepo) FindReport(ctx context.Context, reportID string) (*model.Report, error) {
	rep, err := scanReport(r.pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, reportID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", reportID, model.ErrNotFound)
		}
		return nil, err
	}
	return rep, nil
}

// ResolveReport transitions an open report in a single conditional UPDATE,
// so concurrent moderators cannot both move the same report.
func (r *ReportRepo) ResolveReport(ctx context.Context, reportID string, state model.ResolutionState, by string, at time.Time) (*model.Report, bool, error) {
	rep, err := scanReport(r.pool.QueryRow(ctx, `
		UPDATE reports
		SET resolution_state = $2, resolved_at = $3, resolved_by = $4
		WHERE id = $1 AND resolution_state = 'open'
		RETURNING `+reportColumns,
		reportID, string(state), at, by))
	if err == nil {
		return rep, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Either the report does not exist or it is already terminal.
	rep, err = r.FindReport(ctx, reportID)
	if err != nil {
		return nil, false, err
	}
	return rep, false, nil
}
