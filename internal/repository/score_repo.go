package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

type ScoreRepo struct {
	pool *pgxpool.Pool
}

func NewScoreRepo(pool *pgxpool.Pool) *ScoreRepo {
	return &ScoreRepo{pool: pool}
}

// ScoreInputs reads the verification and report facts behind a station's
// trust score in a single round trip.
func (r *ScoreRepo) ScoreInputs(ctx context.Context, stationID string, recentSince, reportSince time.Time) (model.TrustScoreInputs, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM verifications WHERE station_id = $1) AS total_verifications,
			(SELECT COUNT(*) FROM verifications WHERE station_id = $1 AND created_at > $2) AS recent_verifications,
			(SELECT MAX(created_at) FROM verifications WHERE station_id = $1) AS last_verification_at,
			(SELECT COUNT(*) FROM reports
			  WHERE station_id = $1 AND resolution_state = 'open' AND created_at > $3) AS open_recent_reports,
			(SELECT MAX(created_at) FROM reports WHERE station_id = $1) AS last_report_at`

	var in model.TrustScoreInputs
	err := r.pool.QueryRow(ctx, query, stationID, recentSince, reportSince).Scan(
		&in.TotalVerifications, &in.RecentVerifications, &in.LastVerificationAt,
		&in.OpenRecentReports, &in.LastReportAt,
	)
	return in, err
}
