package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/config"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/metrics"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/pkg/hash"
)

// ReasonReportRejected is the reason recorded on the penalty issued when a
// moderator rejects a report.
const ReasonReportRejected = "report_rejected"

// EventPolicy fixes the delta and deduplication window of one event type.
type EventPolicy struct {
	Delta  int
	Window time.Duration
	// PerReason adds the event reason to the dedup key.
	PerReason bool
}

// TrustPolicy is the reward and penalty table.
type TrustPolicy map[model.TrustEventType]EventPolicy

// DefaultTrustPolicy returns the standard policy with 24h windows.
func DefaultTrustPolicy() TrustPolicy {
	return TrustPolicy{
		model.EventVerificationReward:   {Delta: 1, Window: 24 * time.Hour},
		model.EventReportReward:         {Delta: 2, Window: 24 * time.Hour, PerReason: true},
		model.EventContradictionPenalty: {Delta: -1, Window: 24 * time.Hour},
	}
}

// PolicyFromConfig applies the configured windows to the default policy.
func PolicyFromConfig(cfg *config.Config) TrustPolicy {
	p := DefaultTrustPolicy()
	set := func(t model.TrustEventType, w time.Duration) {
		if w > 0 {
			ep := p[t]
			ep.Window = w
			p[t] = ep
		}
	}
	set(model.EventVerificationReward, cfg.VerificationRewardWindow)
	set(model.EventReportReward, cfg.ReportRewardWindow)
	set(model.EventContradictionPenalty, cfg.ContradictionPenaltyWindow)
	return p
}

// TrustEventService records reputation events at most once per dedup key and
// window.
type TrustEventService struct {
	store  TrustEventStore
	policy TrustPolicy
	now    func() time.Time
}

func NewTrustEventService(store TrustEventStore, policy TrustPolicy) *TrustEventService {
	return &TrustEventService{store: store, policy: policy, now: time.Now}
}

// DedupKey identifies the events that block each other inside a window:
// actor, type and station, plus the reason when the policy is per reason.
func (p TrustPolicy) DedupKey(req model.TrustEventRequest) string {
	parts := []string{req.ActorID, string(req.EventType), deref(req.StationID)}
	if p[req.EventType].PerReason {
		parts = append(parts, deref(req.Reason))
	}
	return hash.DedupKey(parts...)
}

// TryRecordEvent writes the event unless an identical one was recorded inside
// the policy window. A duplicate is not an error: it returns Recorded=false.
func (s *TrustEventService) TryRecordEvent(ctx context.Context, req model.TrustEventRequest) (model.TrustEventResult, error) {
	if req.ActorID == "" {
		return model.TrustEventResult{}, fmt.Errorf("record trust event: %w", model.ErrUnauthorized)
	}
	pol, ok := s.policy[req.EventType]
	if !ok {
		return model.TrustEventResult{}, fmt.Errorf("record trust event: %w: unknown event type %q", model.ErrInvalidInput, req.EventType)
	}
	if req.Delta != pol.Delta {
		return model.TrustEventResult{}, fmt.Errorf("record trust event: %w: delta %d does not match %s (%d)",
			model.ErrInvalidInput, req.Delta, req.EventType, pol.Delta)
	}
	if pol.PerReason && deref(req.Reason) == "" {
		return model.TrustEventResult{}, fmt.Errorf("record trust event: %w: %s requires a reason", model.ErrInvalidInput, req.EventType)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	ev := model.TrustEvent{
		ID:        uuid.NewString(),
		ActorID:   req.ActorID,
		EventType: req.EventType,
		StationID: req.StationID,
		Reason:    req.Reason,
		Delta:     req.Delta,
		CreatedAt: now,
	}

	recorded, err := s.store.InsertTrustEventIfAbsent(ctx, ev, s.policy.DedupKey(req), now.Add(-pol.Window))
	if err != nil {
		return model.TrustEventResult{}, fmt.Errorf("record trust event: %w", err)
	}

	outcome := "duplicate"
	if recorded {
		outcome = "recorded"
	}
	metrics.TrustEventsTotal.WithLabelValues(string(req.EventType), outcome).Inc()
	logger.Log.Debug().
		Str("actor", hash.ShortHash(req.ActorID)).
		Str("event_type", string(req.EventType)).
		Str("outcome", outcome).
		Msg("trust event")

	if !recorded {
		return model.TrustEventResult{Recorded: false}, nil
	}
	return model.TrustEventResult{Recorded: true, Event: &ev}, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
