package model

import (
	"fmt"
	"strings"
	"time"
)

// Vote is a community verification vote.
type Vote string

const (
	VoteWorking    Vote = "WORKING"
	VoteNotWorking Vote = "NOT_WORKING"
	VoteBusy       Vote = "BUSY"
)

// VoteOrder is the declaration order of votes. It doubles as the tie-break
// priority when picking a leading vote.
var VoteOrder = []Vote{VoteWorking, VoteNotWorking, VoteBusy}

// ParseVote normalizes and validates a vote value.
func ParseVote(s string) (Vote, error) {
	v := Vote(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case VoteWorking, VoteNotWorking, VoteBusy:
		return v, nil
	}
	return "", fmt.Errorf("%w: vote must be one of WORKING, NOT_WORKING, BUSY", ErrInvalidInput)
}

// Verification is an individual vote record. Rows are never updated.
type Verification struct {
	ID        string    `json:"id"`
	StationID string    `json:"stationId"`
	ActorID   string    `json:"actorId"`
	Vote      Vote      `json:"vote"`
	CreatedAt time.Time `json:"createdAt"`
}

// VoteTally is the per-vote count for one station, as read from storage.
type VoteTally struct {
	Vote   Vote
	Count  int
	LastAt time.Time
}

// VerificationSummary is derived from a station's verifications on every read.
type VerificationSummary struct {
	Working          int        `json:"working"`
	NotWorking       int        `json:"notWorking"`
	Busy             int        `json:"busy"`
	TotalVotes       int        `json:"totalVotes"`
	LeadingVote      *Vote      `json:"leadingVote"`
	IsVerified       bool       `json:"isVerified"`
	IsStrongVerified bool       `json:"isStrongVerified"`
	LastVerifiedAt   *time.Time `json:"lastVerifiedAt"`
}

// HistoryEntry is one row of a station's verification history.
type HistoryEntry struct {
	ID          string    `json:"id"`
	Vote        Vote      `json:"vote"`
	CreatedAt   time.Time `json:"createdAt"`
	ActorID     string    `json:"actorId"`
	ActorName   string    `json:"actorName"`
	TrustPoints int       `json:"-"`
	TrustTier   TrustTier `json:"trustTier"`
}

// VerifyRequest is the API request body for POST /api/stations/:id/verify.
type VerifyRequest struct {
	Vote string `json:"vote"`
}

// VerifyResponse is the API response after casting a vote.
type VerifyResponse struct {
	Success            bool         `json:"success"`
	Verification       Verification `json:"verification"`
	TrustEventRecorded bool         `json:"trustEventRecorded"`
}
