package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/metrics"
)

// Redis key TTLs. Status and summary depend on the 30-minute recency window,
// so they are kept short; every write for a station also invalidates them.
const (
	SummaryCacheTTL = time.Minute
	StatusCacheTTL  = time.Minute
	ScoreCacheTTL   = 5 * time.Minute
)

// CacheService provides a Redis cache-aside layer for derived station views.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		logger.Log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{}
	}

	logger.Log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// getJSON loads key into dest. It reports false on a miss or when caching is
// disabled.
func (c *CacheService) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		metrics.CacheMisses.Inc()
		return false, nil
	}
	metrics.CacheHits.Inc()
	return true, nil
}

func (c *CacheService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// InvalidateStation drops every derived view of a station. Called after any
// vote, report, trust event or catalog write that concerns it.
func (c *CacheService) InvalidateStation(ctx context.Context, stationID string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, summaryKey(stationID), statusKey(stationID), scoreKey(stationID)).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// invalidate logs instead of failing: a stale entry expires with its TTL.
func (c *CacheService) invalidate(ctx context.Context, stationID string) {
	if err := c.InvalidateStation(ctx, stationID); err != nil {
		logger.Log.Warn().Err(err).Str("station_id", stationID).Msg("cache: invalidate station error")
	}
}

func summaryKey(stationID string) string {
	return fmt.Sprintf("station:%s:summary", stationID)
}

func statusKey(stationID string) string {
	return fmt.Sprintf("station:%s:status", stationID)
}

func scoreKey(stationID string) string {
	return fmt.Sprintf("station:%s:score", stationID)
}
