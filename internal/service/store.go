package service

import (
	"context"
	"time"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

// Storage contracts consumed by the services. The Postgres repositories in
// internal/repository and the embedded store in internal/repository/sqlitestore
// both satisfy them. Lookups of missing rows return an error wrapping
// model.ErrNotFound.

type StationStore interface {
	FindStation(ctx context.Context, stationID string) (*model.Station, error)
}

type VerificationStore interface {
	// InsertVerification appends a vote, creating or refreshing the actor row.
	InsertVerification(ctx context.Context, v model.Verification, actor model.Actor) error
	// TallyVotes counts votes per type for a station created after since.
	TallyVotes(ctx context.Context, stationID string, since time.Time) ([]model.VoteTally, error)
	// ListHistory returns the newest votes first, joined with actor profiles.
	ListHistory(ctx context.Context, stationID string, limit int) ([]model.HistoryEntry, error)
}

type ScoreInputStore interface {
	// ScoreInputs gathers the trust score facts. Verifications after
	// recentSince count as recent; open reports after reportSince count
	// against the score. StationUpdatedAt is left for the caller.
	ScoreInputs(ctx context.Context, stationID string, recentSince, reportSince time.Time) (model.TrustScoreInputs, error)
}

type ReportStore interface {
	InsertReport(ctx context.Context, r model.Report, actor *model.Actor) error
	FindReport(ctx context.Context, reportID string) (*model.Report, error)
	// ResolveReport moves an open report to state. changed is false when the
	// report was already terminal, in which case it is returned unmodified.
	ResolveReport(ctx context.Context, reportID string, state model.ResolutionState, by string, at time.Time) (report *model.Report, changed bool, err error)
}

type TrustEventStore interface {
	// InsertTrustEventIfAbsent writes ev unless an event with the same
	// dedupKey exists with created_at after cutoff. The check and the insert
	// are serialized per dedupKey. On insert the actor's trust points move by
	// ev.Delta in the same transaction.
	InsertTrustEventIfAbsent(ctx context.Context, ev model.TrustEvent, dedupKey string, cutoff time.Time) (bool, error)
	ListActorEvents(ctx context.Context, actorID string, limit int) ([]model.TrustEvent, error)
}

type ActorStore interface {
	FindActor(ctx context.Context, actorID string) (*model.ActorRecord, error)
}

// StationWriter is implemented by stores that hold a local copy of the
// station catalog.
type StationWriter interface {
	UpsertStation(ctx context.Context, st model.Station) error
}
