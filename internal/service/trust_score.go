package service

import (
	"context"
	"fmt"
	"time"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/metrics"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

const (
	day = 24 * time.Hour

	// Verifications newer than this count toward the recent component.
	recentVerificationWindow = 7 * day
	// Open reports newer than this reduce the report component.
	openReportWindow = 30 * day

	pointsPerVerification = 5
	maxVolumePoints       = 20
	maxReportPoints       = 30
	pointsPerOpenReport   = 10
)

// recencyBands maps the age of the newest activity to recency points.
var recencyBands = []struct {
	maxAge time.Duration
	points int
}{
	{day, 30},
	{3 * day, 25},
	{7 * day, 20},
	{14 * day, 15},
	{30 * day, 10},
}

const stalePoints = 5

var scoreLabels = []struct {
	min   int
	label string
}{
	{80, "Highly Trusted"},
	{60, "Trusted"},
	{40, "Moderate"},
	{20, "Low Trust"},
	{0, "Unverified"},
}

// CalculateTrustScore computes the 0-100 station trust score from persisted
// facts.
//
//	verification = min(20, 5*total) + min(20, 5*recent7d)
//	report       = max(0, 30 - 10*openReports30d)
//	recency      = banded age of the newest activity
func CalculateTrustScore(in model.TrustScoreInputs, now time.Time) model.TrustScore {
	c := model.TrustScoreComponents{
		VerificationScore: min(maxVolumePoints, pointsPerVerification*max(0, in.TotalVerifications)) +
			min(maxVolumePoints, pointsPerVerification*max(0, in.RecentVerifications)),
		ReportScore:  max(0, maxReportPoints-pointsPerOpenReport*max(0, in.OpenRecentReports)),
		RecencyScore: recencyPoints(in.LastActivity(), now),
	}

	score := c.VerificationScore + c.ReportScore + c.RecencyScore
	score = max(0, min(100, score))
	return model.TrustScore{Score: score, Label: ScoreLabel(score), Components: c}
}

func recencyPoints(last *time.Time, now time.Time) int {
	if last == nil {
		return stalePoints
	}
	age := now.Sub(*last)
	for _, b := range recencyBands {
		if age <= b.maxAge {
			return b.points
		}
	}
	return stalePoints
}

// ScoreLabel returns the display band for a score.
func ScoreLabel(score int) string {
	for _, l := range scoreLabels {
		if score >= l.min {
			return l.label
		}
	}
	return "Unverified"
}

// ScoreService serves station trust scores.
type ScoreService struct {
	enabled  bool
	stations StationStore
	inputs   ScoreInputStore
	cache    *CacheService
	now      func() time.Time
}

func NewScoreService(enabled bool, stations StationStore, inputs ScoreInputStore, cache *CacheService) *ScoreService {
	return &ScoreService{
		enabled:  enabled,
		stations: stations,
		inputs:   inputs,
		cache:    cache,
		now:      time.Now,
	}
}

// ComputeScore returns the trust score of a station. It fails with
// model.ErrFeatureDisabled when scoring is switched off and
// model.ErrNotFound for unknown stations.
func (s *ScoreService) ComputeScore(ctx context.Context, stationID string) (*model.TrustScore, error) {
	if !s.enabled {
		return nil, model.ErrFeatureDisabled
	}

	var cached model.TrustScore
	if ok, err := s.cache.getJSON(ctx, scoreKey(stationID), &cached); err != nil {
		logger.Log.Warn().Err(err).Str("station_id", stationID).Msg("cache: get score error")
	} else if ok {
		return &cached, nil
	}

	start := time.Now()
	st, err := s.stations.FindStation(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("compute score: %w", err)
	}

	now := s.now()
	in, err := s.inputs.ScoreInputs(ctx, stationID, now.Add(-recentVerificationWindow), now.Add(-openReportWindow))
	if err != nil {
		return nil, fmt.Errorf("compute score: %w", err)
	}
	updatedAt := st.UpdatedAt
	in.StationUpdatedAt = &updatedAt

	score := CalculateTrustScore(in, now)
	metrics.ScoreDuration.Observe(time.Since(start).Seconds())

	if err := s.cache.setJSON(ctx, scoreKey(stationID), score, ScoreCacheTTL); err != nil {
		logger.Log.Warn().Err(err).Str("station_id", stationID).Msg("cache: set score error")
	}
	return &score, nil
}
