package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are created eagerly so instrumented code never sees a nil
// collector; Register attaches them to the default registry once at startup.
var (
	VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargetrust_votes_total",
			Help: "Total verification votes cast, by vote.",
		},
		[]string{"vote"},
	)

	TrustEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargetrust_trust_events_total",
			Help: "Trust event attempts, by event type and outcome (recorded|duplicate).",
		},
		[]string{"event_type", "outcome"},
	)

	ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargetrust_reports_total",
			Help: "Reports filed and reviewed, by resulting resolution state.",
		},
		[]string{"state"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chargetrust_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chargetrust_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chargetrust_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chargetrust_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)

	ScoreDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chargetrust_trust_score_duration_seconds",
			Help:    "Duration of station trust score computations.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all collectors. Call once at startup. pool may be nil
// when the service runs on the embedded SQLite store.
func Register(pool *pgxpool.Pool) {
	if pool != nil {
		prometheus.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "chargetrust_db_connection_pool_active",
					Help: "Number of active database connections.",
				},
				func() float64 {
					return float64(pool.Stat().AcquiredConns())
				},
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "chargetrust_db_connection_pool_idle",
					Help: "Number of idle database connections.",
				},
				func() float64 {
					return float64(pool.Stat().IdleConns())
				},
			),
		)
	}

	prometheus.MustRegister(
		VotesTotal,
		TrustEventsTotal,
		ReportsTotal,
		RequestDuration,
		RequestsInFlight,
		CacheHits,
		CacheMisses,
		ScoreDuration,
	)
}
