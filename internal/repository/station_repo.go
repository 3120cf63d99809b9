package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

type StationRepo struct {
	pool *pgxpool.Pool
}

func NewStationRepo(pool *pgxpool.Pool) *StationRepo {
	return &StationRepo{pool: pool}
}

// FindStation returns the station record maintained by the station catalog.
func (r *StationRepo) FindStation(ctx context.Context, stationID string) (*model.Station, error) {
	query := `
		SELECT id, name, admin_status, available_chargers, total_chargers, updated_at
		FROM stations
		WHERE id = $1`

	var s model.Station
	var adminStatus string
	err := r.pool.QueryRow(ctx, query, stationID).Scan(
		&s.ID, &s.Name, &adminStatus, &s.AvailableChargers, &s.TotalChargers, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("station %s: %w", stationID, model.ErrNotFound)
		}
		return nil, err
	}
	s.AdminStatus = model.AdminStatus(adminStatus)
	return &s, nil
}
