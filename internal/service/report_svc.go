package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/metrics"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/pkg/hash"
)

const maxReportDetails = 1000

// ReportService files reports and applies moderation decisions.
type ReportService struct {
	stations StationStore
	reports  ReportStore
	trust    *TrustEventService
	cache    *CacheService
	now      func() time.Time
}

func NewReportService(stations StationStore, reports ReportStore, trust *TrustEventService, cache *CacheService) *ReportService {
	return &ReportService{
		stations: stations,
		reports:  reports,
		trust:    trust,
		cache:    cache,
		now:      time.Now,
	}
}

// CreateReport files an open report. actor is nil for anonymous reports.
func (s *ReportService) CreateReport(ctx context.Context, stationID string, actor *model.Actor, reason, details string) (*model.Report, error) {
	reason = strings.ToLower(strings.TrimSpace(reason))
	if !model.ValidReportReasons[reason] {
		return nil, fmt.Errorf("create report: %w: unknown reason %q", model.ErrInvalidInput, reason)
	}
	details = strings.TrimSpace(details)
	if len(details) > maxReportDetails {
		return nil, fmt.Errorf("create report: %w: details longer than %d bytes", model.ErrInvalidInput, maxReportDetails)
	}
	if _, err := s.stations.FindStation(ctx, stationID); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	rep := model.Report{
		ID:              uuid.NewString(),
		StationID:       stationID,
		Reason:          reason,
		Details:         details,
		ResolutionState: model.ReportOpen,
		CreatedAt:       s.now().UTC().Truncate(time.Millisecond),
	}
	if actor != nil && actor.ID != "" {
		id := actor.ID
		rep.ActorID = &id
	} else {
		actor = nil
	}

	if err := s.reports.InsertReport(ctx, rep, actor); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	metrics.ReportsTotal.WithLabelValues(string(model.ReportOpen)).Inc()
	s.cache.invalidate(ctx, stationID)

	logger.Log.Info().
		Str("station_id", stationID).
		Str("report_id", rep.ID).
		Str("reason", reason).
		Bool("anonymous", rep.ActorID == nil).
		Msg("report created")
	return &rep, nil
}

// ReviewReport moves an open report to a terminal state. Only admins may
// review. A report that is already terminal is returned unchanged with
// Changed=false and no trust event.
func (s *ReportService) ReviewReport(ctx context.Context, reportID string, moderator model.Actor, rawState string) (*model.ReviewResponse, error) {
	if moderator.ID == "" {
		return nil, fmt.Errorf("review report: %w", model.ErrUnauthorized)
	}
	if !moderator.IsAdmin() {
		return nil, fmt.Errorf("review report: %w: admin role required", model.ErrForbidden)
	}
	state, err := model.ParseReviewState(rawState)
	if err != nil {
		return nil, fmt.Errorf("review report: %w", err)
	}

	rep, changed, err := s.reports.ResolveReport(ctx, reportID, state, moderator.ID, s.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return nil, fmt.Errorf("review report: %w", err)
	}
	resp := &model.ReviewResponse{Report: *rep, Changed: changed}
	if !changed {
		logger.Log.Info().
			Str("report_id", reportID).
			Str("state", string(rep.ResolutionState)).
			Msg("report already reviewed")
		return resp, nil
	}
	metrics.ReportsTotal.WithLabelValues(string(state)).Inc()

	if rep.ActorID != nil && s.trust != nil {
		if req, ok := reviewEvent(rep, state); ok {
			res, err := s.trust.TryRecordEvent(ctx, req)
			if err != nil {
				logger.Log.Error().Err(err).
					Str("report_id", reportID).
					Str("actor", hash.ShortHash(*rep.ActorID)).
					Msg("review trust event failed")
			} else {
				resp.TrustEventRecorded = res.Recorded
			}
		}
	}

	s.cache.invalidate(ctx, rep.StationID)

	logger.Log.Info().
		Str("report_id", reportID).
		Str("station_id", rep.StationID).
		Str("state", string(state)).
		Bool("trust_event_recorded", resp.TrustEventRecorded).
		Msg("report reviewed")
	return resp, nil
}

// reviewEvent returns the trust event a review outcome earns the reporter.
func reviewEvent(rep *model.Report, state model.ResolutionState) (model.TrustEventRequest, bool) {
	stationID := rep.StationID
	switch state {
	case model.ReportConfirmed, model.ReportResolved:
		reason := rep.Reason
		return model.TrustEventRequest{
			ActorID:   *rep.ActorID,
			EventType: model.EventReportReward,
			StationID: &stationID,
			Reason:    &reason,
			Delta:     2,
		}, true
	case model.ReportRejected:
		reason := ReasonReportRejected
		return model.TrustEventRequest{
			ActorID:   *rep.ActorID,
			EventType: model.EventContradictionPenalty,
			StationID: &stationID,
			Reason:    &reason,
			Delta:     -1,
		}, true
	}
	return model.TrustEventRequest{}, false
}
