package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/repository/sqlitestore"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store  *sqlitestore.Store
	clock  *clock
	trust  *TrustEventService
	votes  *VerificationService
	status *StatusService
	score  *ScoreService
	report *ReportService
	actors *ActorService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlitestore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for _, st := range []model.Station{
		{ID: "st-open", Name: "Marina", AdminStatus: model.AdminOperational, AvailableChargers: 2, TotalChargers: 4, UpdatedAt: base.Add(-40 * day)},
		{ID: "st-full", Name: "Mall", AdminStatus: model.AdminOperational, AvailableChargers: 0, TotalChargers: 4, UpdatedAt: base.Add(-40 * day)},
		{ID: "st-down", Name: "Depot", AdminStatus: model.AdminOffline, AvailableChargers: 4, TotalChargers: 4, UpdatedAt: base.Add(-40 * day)},
	} {
		require.NoError(t, store.UpsertStation(ctx, st))
	}

	clk := &clock{t: base}
	cache := &CacheService{}

	trust := NewTrustEventService(store, DefaultTrustPolicy())
	trust.now = clk.Now
	votes := NewVerificationService(store, store, trust, cache, 0)
	votes.now = clk.Now
	status := NewStatusService(store, votes, cache)
	status.now = clk.Now
	score := NewScoreService(true, store, store, cache)
	score.now = clk.Now
	report := NewReportService(store, store, trust, cache)
	report.now = clk.Now
	actors := NewActorService(store, store)
	actors.now = clk.Now

	return &fixture{
		store: store, clock: clk, trust: trust, votes: votes,
		status: status, score: score, report: report, actors: actors,
	}
}

var (
	alice = model.Actor{ID: "alice", DisplayName: "Alice"}
	bob   = model.Actor{ID: "bob", DisplayName: "Bob"}
	admin = model.Actor{ID: "mod", DisplayName: "Moderator", Role: model.RoleAdmin}
)

func TestRecordVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.votes.RecordVote(ctx, "st-open", alice, "working")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.True(t, resp.TrustEventRecorded)
	require.Equal(t, model.VoteWorking, resp.Verification.Vote)

	f.clock.Advance(time.Minute)
	resp, err = f.votes.RecordVote(ctx, "st-open", alice, "BUSY")
	require.NoError(t, err, "a second vote inside the reward window still succeeds")
	require.False(t, resp.TrustEventRecorded)

	summary, err := f.votes.Summarize(ctx, "st-open")
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalVotes)
	require.Equal(t, model.VoteWorking, *summary.LeadingVote, "tie goes to WORKING")
	require.True(t, summary.LastVerifiedAt.Equal(base.Add(time.Minute)))

	profile, err := f.actors.Profile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, profile.TrustPoints)
	require.Len(t, profile.RecentEvents, 1)
	require.Equal(t, model.EventVerificationReward, profile.RecentEvents[0].EventType)
}

func TestRecordVote_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.votes.RecordVote(ctx, "st-open", alice, "MAYBE")
	require.True(t, errors.Is(err, model.ErrInvalidInput))

	_, err = f.votes.RecordVote(ctx, "missing", alice, "WORKING")
	require.True(t, errors.Is(err, model.ErrNotFound))

	_, err = f.votes.RecordVote(ctx, "st-open", model.Actor{}, "WORKING")
	require.True(t, errors.Is(err, model.ErrUnauthorized))

	summary, err := f.votes.Summarize(ctx, "st-open")
	require.NoError(t, err)
	require.Zero(t, summary.TotalVotes, "failed votes must not be stored")
}

func TestSummarize_UnknownStationIsEmpty(t *testing.T) {
	f := newFixture(t)
	summary, err := f.votes.Summarize(context.Background(), "missing")
	require.NoError(t, err)
	require.Equal(t, model.VerificationSummary{}, summary)
}

func TestSummarize_Lookback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.votes.lookback = time.Hour

	_, err := f.votes.RecordVote(ctx, "st-open", alice, "NOT_WORKING")
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	_, err = f.votes.RecordVote(ctx, "st-open", bob, "WORKING")
	require.NoError(t, err)

	summary, err := f.votes.Summarize(ctx, "st-open")
	require.NoError(t, err)
	require.Equal(t, 1, summary.TotalVotes)
	require.Equal(t, 1, summary.Working)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.votes.RecordVote(ctx, "st-open", bob, "BUSY")
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}
	_, err := f.votes.RecordVote(ctx, "st-open", alice, "WORKING")
	require.NoError(t, err)

	entries, err := f.votes.History(ctx, "st-open", 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.Equal(t, "alice", entries[0].ActorID)
	require.Equal(t, "Alice", entries[0].ActorName)
	require.Equal(t, model.TierNewcomer, entries[0].TrustTier)

	entries, err = f.votes.History(ctx, "st-open", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entries, err = f.votes.History(ctx, "missing", 500)
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.status.Status(ctx, "st-open")
	require.NoError(t, err)
	require.Equal(t, model.StatusWorking, st.Status)

	_, err = f.votes.RecordVote(ctx, "st-open", alice, "BUSY")
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	st, err = f.status.Status(ctx, "st-open")
	require.NoError(t, err)
	require.Equal(t, model.StatusBusy, st.Status)
	require.Equal(t, 1, st.Summary.Busy)

	f.clock.Advance(time.Hour)
	st, err = f.status.Status(ctx, "st-open")
	require.NoError(t, err)
	require.Equal(t, model.StatusWorking, st.Status, "busy vote has gone stale")

	st, err = f.status.Status(ctx, "st-full")
	require.NoError(t, err)
	require.Equal(t, model.StatusBusy, st.Status)

	st, err = f.status.Status(ctx, "st-down")
	require.NoError(t, err)
	require.Equal(t, model.StatusNotWorking, st.Status)

	_, err = f.status.Status(ctx, "missing")
	require.True(t, errors.Is(err, model.ErrNotFound))
}

func TestComputeScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	score, err := f.score.ComputeScore(ctx, "st-open")
	require.NoError(t, err)
	require.Equal(t, 35, score.Score, "no votes, no reports, station updated 40 days ago")

	for _, a := range []model.Actor{alice, bob, admin} {
		_, err := f.votes.RecordVote(ctx, "st-open", a, "WORKING")
		require.NoError(t, err)
	}
	_, err = f.report.CreateReport(ctx, "st-open", &bob, "payment_issue", "")
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)

	score, err = f.score.ComputeScore(ctx, "st-open")
	require.NoError(t, err)
	require.Equal(t, model.TrustScoreComponents{VerificationScore: 30, ReportScore: 20, RecencyScore: 30}, score.Components)
	require.Equal(t, 80, score.Score)
	require.Equal(t, "Highly Trusted", score.Label)

	_, err = f.score.ComputeScore(ctx, "missing")
	require.True(t, errors.Is(err, model.ErrNotFound))
}

func TestComputeScore_Disabled(t *testing.T) {
	f := newFixture(t)
	f.score.enabled = false
	_, err := f.score.ComputeScore(context.Background(), "st-open")
	require.True(t, errors.Is(err, model.ErrFeatureDisabled))
}

func TestTryRecordEvent_Window(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := "st-open"
	req := model.TrustEventRequest{
		ActorID: "carol", EventType: model.EventVerificationReward, StationID: &station, Delta: 1,
	}

	res, err := f.trust.TryRecordEvent(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Recorded)
	require.NotNil(t, res.Event)

	f.clock.Advance(23 * time.Hour)
	res, err = f.trust.TryRecordEvent(ctx, req)
	require.NoError(t, err)
	require.False(t, res.Recorded)
	require.Nil(t, res.Event)

	f.clock.Advance(time.Hour + time.Millisecond)
	res, err = f.trust.TryRecordEvent(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Recorded, "window elapsed")

	events, err := f.store.ListActorEvents(ctx, "carol", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestTryRecordEvent_KeyParts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stA, stB := "st-open", "st-full"
	broken, payment := "broken_charger", "payment_issue"

	record := func(req model.TrustEventRequest) bool {
		t.Helper()
		res, err := f.trust.TryRecordEvent(ctx, req)
		require.NoError(t, err)
		return res.Recorded
	}

	require.True(t, record(model.TrustEventRequest{ActorID: "dan", EventType: model.EventVerificationReward, StationID: &stA, Delta: 1}))
	require.True(t, record(model.TrustEventRequest{ActorID: "dan", EventType: model.EventVerificationReward, StationID: &stB, Delta: 1}), "other station")
	require.True(t, record(model.TrustEventRequest{ActorID: "eve", EventType: model.EventVerificationReward, StationID: &stA, Delta: 1}), "other actor")

	require.True(t, record(model.TrustEventRequest{ActorID: "dan", EventType: model.EventReportReward, StationID: &stA, Reason: &broken, Delta: 2}))
	require.True(t, record(model.TrustEventRequest{ActorID: "dan", EventType: model.EventReportReward, StationID: &stA, Reason: &payment, Delta: 2}), "report rewards dedupe per reason")
	require.False(t, record(model.TrustEventRequest{ActorID: "dan", EventType: model.EventReportReward, StationID: &stA, Reason: &broken, Delta: 2}))

	profile, err := f.actors.Profile(ctx, "dan")
	require.NoError(t, err)
	require.Equal(t, 6, profile.TrustPoints)
	require.Equal(t, model.TierContributor, profile.TrustTier)
}

func TestTryRecordEvent_Invalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := "st-open"

	tests := []struct {
		name string
		req  model.TrustEventRequest
		want error
	}{
		{"no actor", model.TrustEventRequest{EventType: model.EventVerificationReward, Delta: 1}, model.ErrUnauthorized},
		{"unknown type", model.TrustEventRequest{ActorID: "x", EventType: "bonus", Delta: 1}, model.ErrInvalidInput},
		{"wrong delta", model.TrustEventRequest{ActorID: "x", EventType: model.EventVerificationReward, StationID: &station, Delta: 5}, model.ErrInvalidInput},
		{"report reward without reason", model.TrustEventRequest{ActorID: "x", EventType: model.EventReportReward, StationID: &station, Delta: 2}, model.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.trust.TryRecordEvent(ctx, tt.req)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestTryRecordEvent_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := "st-open"

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.trust.TryRecordEvent(ctx, model.TrustEventRequest{
				ActorID: "frank", EventType: model.EventVerificationReward, StationID: &station, Delta: 1,
			})
			if err != nil {
				t.Error(err)
				return
			}
			results <- res.Recorded
		}()
	}
	wg.Wait()
	close(results)

	recorded := 0
	for ok := range results {
		if ok {
			recorded++
		}
	}
	require.Equal(t, 1, recorded)
}

func TestReviewReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rep, err := f.report.CreateReport(ctx, "st-open", &bob, " Broken_Charger ", "connector 2 sparks")
	require.NoError(t, err)
	require.Equal(t, "broken_charger", rep.Reason)
	require.Equal(t, model.ReportOpen, rep.ResolutionState)

	_, err = f.report.ReviewReport(ctx, rep.ID, alice, "confirmed")
	require.True(t, errors.Is(err, model.ErrForbidden))

	_, err = f.report.ReviewReport(ctx, rep.ID, admin, "open")
	require.True(t, errors.Is(err, model.ErrInvalidInput))

	resp, err := f.report.ReviewReport(ctx, rep.ID, admin, "confirmed")
	require.NoError(t, err)
	require.True(t, resp.Changed)
	require.True(t, resp.TrustEventRecorded)
	require.Equal(t, model.ReportConfirmed, resp.Report.ResolutionState)
	require.Equal(t, "mod", *resp.Report.ResolvedBy)

	resp, err = f.report.ReviewReport(ctx, rep.ID, admin, "rejected")
	require.NoError(t, err)
	require.False(t, resp.Changed)
	require.False(t, resp.TrustEventRecorded)
	require.Equal(t, model.ReportConfirmed, resp.Report.ResolutionState)

	profile, err := f.actors.Profile(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, 2, profile.TrustPoints)

	_, err = f.report.ReviewReport(ctx, "missing", admin, "resolved")
	require.True(t, errors.Is(err, model.ErrNotFound))
}

func TestReviewReport_RejectedPenalizesReporter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.votes.RecordVote(ctx, "st-open", bob, "WORKING")
	require.NoError(t, err)
	rep, err := f.report.CreateReport(ctx, "st-open", &bob, "wrong_location", "")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	resp, err := f.report.ReviewReport(ctx, rep.ID, admin, "rejected")
	require.NoError(t, err)
	require.True(t, resp.TrustEventRecorded)

	profile, err := f.actors.Profile(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, 0, profile.TrustPoints)
	require.Len(t, profile.RecentEvents, 2)
	require.Equal(t, model.EventContradictionPenalty, profile.RecentEvents[0].EventType)
	require.Equal(t, -1, profile.RecentEvents[0].Delta)
}

func TestCreateReport_Anonymous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rep, err := f.report.CreateReport(ctx, "st-open", nil, "blocked_access", "")
	require.NoError(t, err)
	require.Nil(t, rep.ActorID)

	resp, err := f.report.ReviewReport(ctx, rep.ID, admin, "resolved")
	require.NoError(t, err)
	require.True(t, resp.Changed)
	require.False(t, resp.TrustEventRecorded, "no reporter to reward")

	_, err = f.report.CreateReport(ctx, "st-open", nil, "", "")
	require.True(t, errors.Is(err, model.ErrInvalidInput))
	_, err = f.report.CreateReport(ctx, "missing", nil, "other", "")
	require.True(t, errors.Is(err, model.ErrNotFound))
}

func TestProfile_UnknownActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.actors.Profile(context.Background(), "nobody")
	require.True(t, errors.Is(err, model.ErrNotFound))
}

type failingWriter struct {
	StationWriter
	failOn string
}

func (w failingWriter) UpsertStation(ctx context.Context, st model.Station) error {
	if st.ID == w.failOn {
		return errors.New("disk full")
	}
	return w.StationWriter.UpsertStation(ctx, st)
}

func TestApplyStations_AdminStatusChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.status.Status(ctx, "st-open")
	require.NoError(t, err)
	require.Equal(t, model.StatusWorking, st.Status)

	err = ApplyStations(ctx, f.store, &CacheService{}, []model.Station{
		{ID: "st-open", Name: "Marina", AdminStatus: model.AdminOffline, AvailableChargers: 2, TotalChargers: 4, UpdatedAt: base},
		{ID: "st-full", Name: "Mall", AdminStatus: model.AdminOperational, AvailableChargers: 3, TotalChargers: 4, UpdatedAt: base},
	})
	require.NoError(t, err)

	st, err = f.status.Status(ctx, "st-open")
	require.NoError(t, err)
	require.Equal(t, model.StatusNotWorking, st.Status)

	st, err = f.status.Status(ctx, "st-full")
	require.NoError(t, err)
	require.Equal(t, model.StatusWorking, st.Status)
}

func TestApplyStations_StopsAtFailedWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := ApplyStations(ctx, failingWriter{StationWriter: f.store, failOn: "st-new-2"}, nil, []model.Station{
		{ID: "st-new-1", Name: "North", AdminStatus: model.AdminOperational, TotalChargers: 2, UpdatedAt: base},
		{ID: "st-new-2", Name: "South", AdminStatus: model.AdminOperational, TotalChargers: 2, UpdatedAt: base},
		{ID: "st-new-3", Name: "East", AdminStatus: model.AdminOperational, TotalChargers: 2, UpdatedAt: base},
	})
	require.ErrorContains(t, err, "st-new-2")

	_, err = f.store.FindStation(ctx, "st-new-1")
	require.NoError(t, err)
	_, err = f.store.FindStation(ctx, "st-new-3")
	require.True(t, errors.Is(err, model.ErrNotFound))
}
