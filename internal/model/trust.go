package model

import "time"

// TrustEventType identifies the kind of reputation change.
type TrustEventType string

const (
	EventVerificationReward   TrustEventType = "verification_reward"
	EventReportReward         TrustEventType = "report_reward"
	EventContradictionPenalty TrustEventType = "contradiction_penalty"
)

// TrustEvent is an append-only reputation delta applied to an actor.
type TrustEvent struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actorId"`
	EventType TrustEventType `json:"eventType"`
	StationID *string        `json:"stationId,omitempty"`
	Reason    *string        `json:"reason,omitempty"`
	Delta     int            `json:"delta"`
	CreatedAt time.Time      `json:"createdAt"`
}

// TrustEventRequest describes an event the caller wants recorded.
type TrustEventRequest struct {
	ActorID   string
	EventType TrustEventType
	StationID *string
	Reason    *string
	Delta     int
}

// TrustEventResult reports whether an event was written. Recorded is false
// when a matching event already exists inside the lookback window.
type TrustEventResult struct {
	Recorded bool        `json:"recorded"`
	Event    *TrustEvent `json:"event,omitempty"`
}

// TrustScoreInputs are the persisted facts the station trust score is
// computed from.
type TrustScoreInputs struct {
	TotalVerifications  int
	RecentVerifications int
	OpenRecentReports   int
	LastVerificationAt  *time.Time
	LastReportAt        *time.Time
	StationUpdatedAt    *time.Time
}

// LastActivity returns the newest of the verification, report and station
// update timestamps, or nil when none is known.
func (in TrustScoreInputs) LastActivity() *time.Time {
	var last *time.Time
	for _, t := range []*time.Time{in.LastVerificationAt, in.LastReportAt, in.StationUpdatedAt} {
		if t == nil || t.IsZero() {
			continue
		}
		if last == nil || t.After(*last) {
			last = t
		}
	}
	return last
}

// TrustScoreComponents breaks a trust score into its parts.
type TrustScoreComponents struct {
	VerificationScore int `json:"verificationScore"`
	ReportScore       int `json:"reportScore"`
	RecencyScore      int `json:"recencyScore"`
}

// TrustScore is the 0-100 station trust score.
type TrustScore struct {
	Score      int                  `json:"score"`
	Label      string               `json:"label"`
	Components TrustScoreComponents `json:"components"`
}
