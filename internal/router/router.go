package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/handler"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/middleware"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Station *handler.StationHandler
	Report  *handler.ReportHandler
	User    *handler.UserHandler
	Health  *handler.HealthHandler
}

// Options carries the request-edge settings.
type Options struct {
	CORSOrigins string
	// AuthSecret, when set, requires signed identity headers.
	AuthSecret string
}

// Setup configures the middleware stack and all API routes on the given Fiber
// app. The returned func stops the rate limiter sweepers.
func Setup(app *fiber.App, h *Handlers, opts Options) func() {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(opts.CORSOrigins))

	// Operational endpoints (no auth)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	readLimit := middleware.NewReadRateLimiter()
	voteLimit := middleware.NewVoteRateLimiter()
	reportLimit := middleware.NewReportRateLimiter()
	reviewLimit := middleware.NewReviewRateLimiter()

	api := app.Group("/api", middleware.Authenticate(opts.AuthSecret))

	// Station read routes
	stations := api.Group("/stations/:id")
	stations.Get("/verification-summary", readLimit.Handler(), h.Station.Summary)
	stations.Get("/verification-history", readLimit.Handler(), h.Station.History)
	stations.Get("/status", readLimit.Handler(), h.Station.Status)
	stations.Get("/trust-score", readLimit.Handler(), h.Station.TrustScore)

	// Station write routes
	stations.Post("/verify", middleware.RequireActor(), voteLimit.Handler(), h.Station.Verify)
	stations.Post("/reports", reportLimit.Handler(), h.Station.Report)

	// User routes
	api.Get("/users/:userId", readLimit.Handler(), h.User.GetProfile)

	// Moderation routes
	admin := api.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.Patch("/reports/:id/review", reviewLimit.Handler(), h.Report.Review)

	return func() {
		readLimit.Close()
		voteLimit.Close()
		reportLimit.Close()
		reviewLimit.Close()
	}
}
