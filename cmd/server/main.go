package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/pflag"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/config"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/db"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/handler"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/metrics"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/repository"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/repository/sqlitestore"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/router"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/service"
)

// backend bundles the storage implementations behind the service contracts.
type backend struct {
	stations      service.StationStore
	verifications service.VerificationStore
	scores        service.ScoreInputStore
	reports       service.ReportStore
	events        service.TrustEventStore
	actors        service.ActorStore
	catalog       service.StationWriter // nil when stations are owned elsewhere
	pinger        handler.Pinger
	close         func()
}

func main() {
	configPath := pflag.String("config", os.Getenv("CHARGETRUST_CONFIG"), "path to a YAML config file")
	port := pflag.String("port", "", "listen port (overrides PORT)")
	store := pflag.String("store", "", "storage driver: postgres or sqlite (overrides STORE_DRIVER)")
	seed := pflag.String("seed-stations", "", "YAML station seed file (sqlite only)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init("info", "chargetrust")
		logger.Log.Fatal().Err(err).Msg("failed to load config")
	}
	if pflag.CommandLine.Changed("port") {
		cfg.Port = *port
	}
	if pflag.CommandLine.Changed("store") {
		cfg.StoreDriver = *store
	}

	logger.Init(cfg.LogLevel, "chargetrust")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer be.close()

	cache := service.NewCacheService(cfg.RedisURL)
	defer func() {
		_ = cache.Close()
	}()

	if *seed != "" {
		if err := seedStations(ctx, be, cache, *seed); err != nil {
			logger.Log.Fatal().Err(err).Str("path", *seed).Msg("failed to seed stations")
		}
	}

	trust := service.NewTrustEventService(be.events, service.PolicyFromConfig(cfg))
	verifications := service.NewVerificationService(be.stations, be.verifications, trust, cache, cfg.SummaryLookback)
	status := service.NewStatusService(be.stations, verifications, cache)
	scores := service.NewScoreService(cfg.TrustScoreEnabled, be.stations, be.scores, cache)
	reports := service.NewReportService(be.stations, be.reports, trust, cache)
	actors := service.NewActorService(be.actors, be.events)

	app := fiber.New(fiber.Config{
		AppName:      "ChargeTrust API",
		ServerHeader: "ChargeTrust",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	closeLimiters := router.Setup(app, &router.Handlers{
		Station: handler.NewStationHandler(verifications, status, scores, reports),
		Report:  handler.NewReportHandler(reports),
		User:    handler.NewUserHandler(actors),
		Health:  handler.NewHealthHandler(be.pinger, cfg.StoreDriver, cache.Client()),
	}, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		AuthSecret:  cfg.AuthSharedSecret,
	})
	defer closeLimiters()

	if cfg.AuthSharedSecret == "" {
		logger.Log.Warn().Msg("AUTH_SHARED_SECRET not set, identity headers are trusted as-is")
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Environment).
			Str("store", cfg.StoreDriver).
			Bool("trust_score_enabled", cfg.TrustScoreEnabled).
			Msg("ChargeTrust API starting")
		errCh <- app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		logger.Log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		st, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		metrics.Register(nil)
		return &backend{
			stations:      st,
			verifications: st,
			scores:        st,
			reports:       st,
			events:        st,
			actors:        st,
			catalog:       st,
			pinger:        st,
			close:         func() { _ = st.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		metrics.Register(pool)
		return &backend{
			stations:      repository.NewStationRepo(pool),
			verifications: repository.NewVerificationRepo(pool),
			scores:        repository.NewScoreRepo(pool),
			reports:       repository.NewReportRepo(pool),
			events:        repository.NewTrustEventRepo(pool),
			actors:        repository.NewActorRepo(pool),
			pinger:        pool,
			close:         pool.Close,
		}, nil
	}
	return nil, errors.New("unknown store driver " + cfg.StoreDriver)
}

func seedStations(ctx context.Context, be *backend, cache *service.CacheService, path string) error {
	if be.catalog == nil {
		return errors.New("--seed-stations is only supported with the sqlite store")
	}
	stations, err := config.LoadStations(path, time.Now())
	if err != nil {
		return err
	}
	return service.ApplyStations(ctx, be.catalog, cache, stations)
}
