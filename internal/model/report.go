package model

import (
	"fmt"
	"strings"
	"time"
)

// ResolutionState is the moderation state of a report.
type ResolutionState string

const (
	ReportOpen      ResolutionState = "open"
	ReportResolved  ResolutionState = "resolved"
	ReportRejected  ResolutionState = "rejected"
	ReportConfirmed ResolutionState = "confirmed"
)

// ParseReviewState validates a moderator's target state. Only terminal
// states are accepted.
func ParseReviewState(s string) (ResolutionState, error) {
	st := ResolutionState(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case ReportResolved, ReportRejected, ReportConfirmed:
		return st, nil
	}
	return "", fmt.Errorf("%w: reviewStatus must be one of resolved, rejected, confirmed", ErrInvalidInput)
}

// ValidReportReasons are the allowed report reason values.
var ValidReportReasons = map[string]bool{
	"broken_charger": true,
	"wrong_location": true,
	"blocked_access": true,
	"payment_issue":  true,
	"other":          true,
}

// Report is a user-filed flag against a station.
type Report struct {
	ID              string          `json:"id"`
	StationID       string          `json:"stationId"`
	ActorID         *string         `json:"actorId,omitempty"`
	Reason          string          `json:"reason"`
	Details         string          `json:"details,omitempty"`
	ResolutionState ResolutionState `json:"resolutionState"`
	CreatedAt       time.Time       `json:"createdAt"`
	ResolvedAt      *time.Time      `json:"resolvedAt,omitempty"`
	ResolvedBy      *string         `json:"resolvedBy,omitempty"`
}

// ReportRequest is the API request body for POST /api/stations/:id/reports.
type ReportRequest struct {
	Reason  string `json:"reason"`
	Details string `json:"details,omitempty"`
}

// ReviewRequest is the API request body for PATCH /api/admin/reports/:id/review.
type ReviewRequest struct {
	ReviewStatus string `json:"reviewStatus"`
}

// ReviewResponse is the API response after a moderation action.
type ReviewResponse struct {
	Report             Report `json:"report"`
	Changed            bool   `json:"changed"`
	TrustEventRecorded bool   `json:"trustEventRecorded"`
}
