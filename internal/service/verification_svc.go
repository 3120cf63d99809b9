package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/metrics"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/pkg/hash"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// VerificationService owns the vote ledger and its derived summary.
type VerificationService struct {
	stations StationStore
	votes    VerificationStore
	trust    *TrustEventService
	cache    *CacheService
	// lookback bounds the summary; zero counts every vote.
	lookback time.Duration
	now      func() time.Time
}

func NewVerificationService(stations StationStore, votes VerificationStore, trust *TrustEventService, cache *CacheService, lookback time.Duration) *VerificationService {
	return &VerificationService{
		stations: stations,
		votes:    votes,
		trust:    trust,
		cache:    cache,
		lookback: lookback,
		now:      time.Now,
	}
}

// RecordVote appends a vote for a station and attempts the voter's
// verification reward. A reward already granted inside its window does not
// fail the vote.
func (s *VerificationService) RecordVote(ctx context.Context, stationID string, actor model.Actor, rawVote string) (*model.VerifyResponse, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("record vote: %w", model.ErrUnauthorized)
	}
	vote, err := model.ParseVote(rawVote)
	if err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}
	if _, err := s.stations.FindStation(ctx, stationID); err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}

	v := model.Verification{
		ID:        uuid.NewString(),
		StationID: stationID,
		ActorID:   actor.ID,
		Vote:      vote,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.votes.InsertVerification(ctx, v, actor); err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}
	metrics.VotesTotal.WithLabelValues(string(vote)).Inc()

	resp := &model.VerifyResponse{Success: true, Verification: v}
	if s.trust != nil {
		res, err := s.trust.TryRecordEvent(ctx, model.TrustEventRequest{
			ActorID:   actor.ID,
			EventType: model.EventVerificationReward,
			StationID: &stationID,
			Delta:     1,
		})
		if err != nil {
			// The vote is committed; a failed reward is logged, not returned.
			logger.Log.Error().Err(err).
				Str("station_id", stationID).
				Str("actor", hash.ShortHash(actor.ID)).
				Msg("verification reward failed")
		} else {
			resp.TrustEventRecorded = res.Recorded
		}
	}

	s.cache.invalidate(ctx, stationID)

	logger.Log.Info().
		Str("station_id", stationID).
		Str("actor", hash.ShortHash(actor.ID)).
		Str("vote", string(vote)).
		Bool("trust_event_recorded", resp.TrustEventRecorded).
		Msg("vote recorded")
	return resp, nil
}

// Summarize returns the vote summary of a station. Stations without votes,
// including unknown ones, get an all-zero summary.
func (s *VerificationService) Summarize(ctx context.Context, stationID string) (model.VerificationSummary, error) {
	var cached model.VerificationSummary
	if ok, err := s.cache.getJSON(ctx, summaryKey(stationID), &cached); err != nil {
		logger.Log.Warn().Err(err).Str("station_id", stationID).Msg("cache: get summary error")
	} else if ok {
		return cached, nil
	}

	var since time.Time
	if s.lookback > 0 {
		since = s.now().Add(-s.lookback)
	}
	tallies, err := s.votes.TallyVotes(ctx, stationID, since)
	if err != nil {
		return model.VerificationSummary{}, fmt.Errorf("summarize votes: %w", err)
	}
	summary := SummarizeTallies(tallies)

	if err := s.cache.setJSON(ctx, summaryKey(stationID), summary, SummaryCacheTTL); err != nil {
		logger.Log.Warn().Err(err).Str("station_id", stationID).Msg("cache: set summary error")
	}
	return summary, nil
}

// History returns a station's newest votes with the voter's trust tier.
// limit <= 0 selects the default; larger values are capped.
func (s *VerificationService) History(ctx context.Context, stationID string, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	entries, err := s.votes.ListHistory(ctx, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("verification history: %w", err)
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	for i := range entries {
		entries[i].TrustTier = TierFor(entries[i].TrustPoints)
	}
	return entries, nil
}
