package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/config"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/handler"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/middleware"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/repository/sqlitestore"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/service"
)

type testEnv struct {
	app   *fiber.App
	store *sqlitestore.Store
}

func newTestEnv(t *testing.T, scoreEnabled bool, secret string) *testEnv {
	t.Helper()
	store, err := sqlitestore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.UpsertStation(context.Background(), model.Station{
		ID: "olaya-01", Name: "Olaya", AdminStatus: model.AdminOperational,
		AvailableChargers: 2, TotalChargers: 4, UpdatedAt: time.Now().Add(-time.Hour),
	}))

	cache := service.NewCacheService("")
	cfg := &config.Config{}
	trust := service.NewTrustEventService(store, service.PolicyFromConfig(cfg))
	verifications := service.NewVerificationService(store, store, trust, cache, 0)
	status := service.NewStatusService(store, verifications, cache)
	scores := service.NewScoreService(scoreEnabled, store, store, cache)
	reports := service.NewReportService(store, store, trust, cache)
	actors := service.NewActorService(store, store)

	app := fiber.New()
	closeFn := Setup(app, &Handlers{
		Station: handler.NewStationHandler(verifications, status, scores, reports),
		Report:  handler.NewReportHandler(reports),
		User:    handler.NewUserHandler(actors),
		Health:  handler.NewHealthHandler(store, config.DriverSQLite, nil),
	}, Options{AuthSecret: secret})
	t.Cleanup(closeFn)

	return &testEnv{app: app, store: store}
}

type identity struct {
	id, role string
}

func (e *testEnv) do(t *testing.T, method, path string, who *identity, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who != nil {
		req.Header.Set(middleware.HeaderUserID, who.id)
		req.Header.Set(middleware.HeaderUserRole, who.role)
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

var (
	driver = &identity{id: "driver-1"}
	mod    = &identity{id: "mod-1", role: model.RoleAdmin}
)

func TestVerifyFlow(t *testing.T) {
	env := newTestEnv(t, true, "")

	status, body := env.do(t, http.MethodPost, "/api/stations/olaya-01/verify", driver, fiber.Map{"vote": "BUSY"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	vr := decode[model.VerifyResponse](t, body)
	require.True(t, vr.Success)
	require.True(t, vr.TrustEventRecorded)
	require.Equal(t, model.VoteBusy, vr.Verification.Vote)

	status, body = env.do(t, http.MethodPost, "/api/stations/olaya-01/verify", driver, fiber.Map{"vote": "BUSY"})
	require.Equal(t, fiber.StatusCreated, status)
	require.False(t, decode[model.VerifyResponse](t, body).TrustEventRecorded)

	status, body = env.do(t, http.MethodGet, "/api/stations/olaya-01/verification-summary", nil, nil)
	require.Equal(t, fiber.StatusOK, status)
	summary := decode[model.VerificationSummary](t, body)
	require.Equal(t, 2, summary.Busy)
	require.Equal(t, model.VoteBusy, *summary.LeadingVote)

	status, body = env.do(t, http.MethodGet, "/api/stations/olaya-01/status", nil, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, model.StatusBusy, decode[model.StationStatusResponse](t, body).Status)

	status, body = env.do(t, http.MethodGet, "/api/stations/olaya-01/verification-history?limit=1", nil, nil)
	require.Equal(t, fiber.StatusOK, status)
	history := decode[[]model.HistoryEntry](t, body)
	require.Len(t, history, 1)
	require.Equal(t, "driver-1", history[0].ActorID)

	status, body = env.do(t, http.MethodGet, "/api/users/driver-1", nil, nil)
	require.Equal(t, fiber.StatusOK, status)
	profile := decode[model.ActorProfileResponse](t, body)
	require.Equal(t, 1, profile.TrustPoints)
	require.Equal(t, model.TierNewcomer, profile.TrustTier)
}

func TestVerify_Errors(t *testing.T) {
	env := newTestEnv(t, true, "")

	tests := []struct {
		name string
		path string
		who  *identity
		body any
		want int
	}{
		{"anonymous", "/api/stations/olaya-01/verify", nil, fiber.Map{"vote": "WORKING"}, fiber.StatusUnauthorized},
		{"bad vote", "/api/stations/olaya-01/verify", driver, fiber.Map{"vote": "MAYBE"}, fiber.StatusBadRequest},
		{"missing vote", "/api/stations/olaya-01/verify", driver, fiber.Map{}, fiber.StatusBadRequest},
		{"unknown station", "/api/stations/nowhere/verify", driver, fiber.Map{"vote": "WORKING"}, fiber.StatusNotFound},
		{"invalid station id", "/api/stations/bad%20id/verify", driver, fiber.Map{"vote": "WORKING"}, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, tt.path, tt.who, tt.body)
			require.Equal(t, tt.want, status, string(body))
		})
	}
}

func TestTrustScore(t *testing.T) {
	env := newTestEnv(t, true, "")

	status, body := env.do(t, http.MethodGet, "/api/stations/olaya-01/trust-score", nil, nil)
	require.Equal(t, fiber.StatusOK, status)
	score := decode[model.TrustScore](t, body)
	require.Equal(t, model.TrustScoreComponents{VerificationScore: 0, ReportScore: 30, RecencyScore: 30}, score.Components)
	require.Equal(t, 60, score.Score)
	require.Equal(t, "Trusted", score.Label)

	status, _ = env.do(t, http.MethodGet, "/api/stations/nowhere/trust-score", nil, nil)
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestTrustScore_Disabled(t *testing.T) {
	env := newTestEnv(t, false, "")

	status, body := env.do(t, http.MethodGet, "/api/stations/olaya-01/trust-score", nil, nil)
	require.Equal(t, fiber.StatusNotFound, status)
	require.JSONEq(t, `{"message":"Feature not available"}`, string(body))
}

func TestReportReviewFlow(t *testing.T) {
	env := newTestEnv(t, true, "")

	status, body := env.do(t, http.MethodPost, "/api/stations/olaya-01/reports", driver,
		fiber.Map{"reason": "broken_charger", "details": "bay 3 dead"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	rep := decode[model.Report](t, body)
	require.Equal(t, model.ReportOpen, rep.ResolutionState)
	require.Equal(t, "driver-1", *rep.ActorID)

	path := "/api/admin/reports/" + rep.ID + "/review"

	status, _ = env.do(t, http.MethodPatch, path, driver, fiber.Map{"reviewStatus": "confirmed"})
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPatch, path, mod, fiber.Map{"reviewStatus": "pending"})
	require.Equal(t, fiber.StatusBadRequest, status)

	status, body = env.do(t, http.MethodPatch, path, mod, fiber.Map{"reviewStatus": "confirmed"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	rr := decode[model.ReviewResponse](t, body)
	require.True(t, rr.Changed)
	require.True(t, rr.TrustEventRecorded)
	require.Equal(t, model.ReportConfirmed, rr.Report.ResolutionState)

	status, body = env.do(t, http.MethodPatch, path, mod, fiber.Map{"reviewStatus": "rejected"})
	require.Equal(t, fiber.StatusOK, status)
	rr = decode[model.ReviewResponse](t, body)
	require.False(t, rr.Changed)
	require.Equal(t, model.ReportConfirmed, rr.Report.ResolutionState)

	status, body = env.do(t, http.MethodGet, "/api/users/driver-1", nil, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 2, decode[model.ActorProfileResponse](t, body).TrustPoints)

	status, _ = env.do(t, http.MethodPatch, "/api/admin/reports/3f2c1a7e-0d4b-4f7a-9a55-0c1d2e3f4a5b/review", mod,
		fiber.Map{"reviewStatus": "resolved"})
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestReport_AnonymousAndInvalid(t *testing.T) {
	env := newTestEnv(t, true, "")

	status, body := env.do(t, http.MethodPost, "/api/stations/olaya-01/reports", nil, fiber.Map{"reason": "other"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	require.Nil(t, decode[model.Report](t, body).ActorID)

	status, _ = env.do(t, http.MethodPost, "/api/stations/olaya-01/reports", nil, fiber.Map{"reason": "vandalism"})
	require.Equal(t, fiber.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/api/stations/nowhere/reports", nil, fiber.Map{"reason": "other"})
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestSignedIdentity(t *testing.T) {
	const secret = "s3cret"
	env := newTestEnv(t, true, secret)

	status, _ := env.do(t, http.MethodPost, "/api/stations/olaya-01/verify", driver, fiber.Map{"vote": "WORKING"})
	require.Equal(t, fiber.StatusUnauthorized, status, "unsigned identity is rejected")

	req := httptest.NewRequest(http.MethodPost, "/api/stations/olaya-01/verify", bytes.NewReader([]byte(`{"vote":"WORKING"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "driver-1")
	req.Header.Set(middleware.HeaderSignature, middleware.SignActor(secret, "driver-1", ""))
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestUserProfile_NotFound(t *testing.T) {
	env := newTestEnv(t, true, "")
	status, body := env.do(t, http.MethodGet, "/api/users/ghost", nil, nil)
	require.Equal(t, fiber.StatusNotFound, status)
	require.Contains(t, string(body), "NOT_FOUND")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true, "")

	status, _ := env.do(t, http.MethodGet, "/health/live", nil, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body := env.do(t, http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	ready := decode[map[string]any](t, body)
	require.Equal(t, "healthy", ready["status"])
	checks := ready["checks"].(map[string]any)
	require.Equal(t, "disabled", checks["redis"].(map[string]any)["status"])
	require.Equal(t, "sqlite", checks["database"].(map[string]any)["driver"])
}
