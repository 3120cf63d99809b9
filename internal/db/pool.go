package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
)

// PoolOptions tunes the Postgres pool. Zero fields take the defaults below.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	ConnectAttempts int
	RetryInterval   time.Duration
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxConns <= 0 {
		o.MaxConns = 10
	}
	if o.MinConns <= 0 {
		o.MinConns = 2
	}
	if o.MinConns > o.MaxConns {
		o.MinConns = o.MaxConns
	}
	if o.ConnectAttempts <= 0 {
		o.ConnectAttempts = 5
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 2 * time.Second
	}
	return o
}

// NewPool connects to Postgres, retrying while the database comes up. The
// wait between attempts is cut short when ctx is cancelled.
func NewPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	opts = opts.withDefaults()

	cfg.MaxConns = opts.MaxConns
	cfg.MinConns = opts.MinConns
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	for attempt := 1; ; attempt++ {
		pool, err := connect(ctx, cfg)
		if err == nil {
			logger.Log.Info().
				Str("host", cfg.ConnConfig.Host).
				Int32("max_conns", cfg.MaxConns).
				Msg("database connected")
			return pool, nil
		}

		logger.Log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", opts.ConnectAttempts).
			Msg("database connection attempt failed")
		if attempt == opts.ConnectAttempts {
			return nil, fmt.Errorf("database connection failed after %d attempts: %w", attempt, err)
		}

		select {
		case <-time.After(opts.RetryInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func connect(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
