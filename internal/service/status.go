package service

import (
	"context"
	"fmt"
	"time"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

// StatusRecencyWindow is how old the newest vote may be and still count
// toward the displayed status.
const StatusRecencyWindow = 30 * time.Minute

type statusInput struct {
	summary   model.VerificationSummary
	admin     model.AdminStatus
	available int
	total     int
	now       time.Time
}

// recentBusy reports a leading BUSY vote cast inside the recency window.
func (in statusInput) recentBusy() bool {
	s := in.summary
	if s.TotalVotes == 0 || s.LeadingVote == nil || s.LastVerifiedAt == nil {
		return false
	}
	if in.now.Sub(*s.LastVerifiedAt) > StatusRecencyWindow {
		return false
	}
	return *s.LeadingVote == model.VoteBusy
}

type statusRule struct {
	name   string
	match  func(statusInput) bool
	result model.PrimaryStatus
}

// statusRules is evaluated top to bottom; the first match wins.
var statusRules = []statusRule{
	{
		name:   "offline",
		match:  func(in statusInput) bool { return in.admin == model.AdminOffline },
		result: model.StatusNotWorking,
	},
	{
		name:   "no_free_chargers",
		match:  func(in statusInput) bool { return in.total > 0 && in.available == 0 },
		result: model.StatusBusy,
	},
	{
		name: "operational_recent_busy",
		match: func(in statusInput) bool {
			return in.admin == model.AdminOperational && in.recentBusy()
		},
		result: model.StatusBusy,
	},
	{
		name:   "operational",
		match:  func(in statusInput) bool { return in.admin == model.AdminOperational },
		result: model.StatusWorking,
	},
	{
		name:   "recent_busy",
		match:  statusInput.recentBusy,
		result: model.StatusBusy,
	},
}

// ResolveStatus collapses the vote summary, operator status and charger
// availability into the single status shown for a station.
func ResolveStatus(summary model.VerificationSummary, admin model.AdminStatus, available, total int, now time.Time) model.PrimaryStatus {
	status, _ := resolveStatus(statusInput{
		summary:   summary,
		admin:     admin,
		available: available,
		total:     total,
		now:       now,
	})
	return status
}

func resolveStatus(in statusInput) (model.PrimaryStatus, string) {
	for _, r := range statusRules {
		if r.match(in) {
			return r.result, r.name
		}
	}
	return model.StatusNotRecentlyVerified, "fallback"
}

// StatusService serves the resolved station status.
type StatusService struct {
	stations      StationStore
	verifications *VerificationService
	cache         *CacheService
	now           func() time.Time
}

func NewStatusService(stations StationStore, verifications *VerificationService, cache *CacheService) *StatusService {
	return &StatusService{
		stations:      stations,
		verifications: verifications,
		cache:         cache,
		now:           time.Now,
	}
}

// Status resolves the current status of a station.
func (s *StatusService) Status(ctx context.Context, stationID string) (*model.StationStatusResponse, error) {
	var cached model.StationStatusResponse
	if ok, err := s.cache.getJSON(ctx, statusKey(stationID), &cached); err != nil {
		logger.Log.Warn().Err(err).Str("station_id", stationID).Msg("cache: get status error")
	} else if ok {
		return &cached, nil
	}

	st, err := s.stations.FindStation(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("resolve status: %w", err)
	}
	summary, err := s.verifications.Summarize(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("resolve status: %w", err)
	}

	status, rule := resolveStatus(statusInput{
		summary:   summary,
		admin:     st.AdminStatus,
		available: st.AvailableChargers,
		total:     st.TotalChargers,
		now:       s.now(),
	})
	logger.Log.Debug().
		Str("station_id", stationID).
		Str("status", string(status)).
		Str("rule", rule).
		Msg("station status resolved")

	resp := &model.StationStatusResponse{
		StationID:         st.ID,
		Status:            status,
		AdminStatus:       st.AdminStatus,
		AvailableChargers: st.AvailableChargers,
		TotalChargers:     st.TotalChargers,
		Summary:           summary,
	}
	if err := s.cache.setJSON(ctx, statusKey(stationID), resp, StatusCacheTTL); err != nil {
		logger.Log.Warn().Err(err).Str("station_id", stationID).Msg("cache: set status error")
	}
	return resp, nil
}
