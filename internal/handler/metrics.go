package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/metrics"
)

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Path and method alias the fasthttp buffer, which handlers may reuse.
		// Copy them before c.Next().
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		metrics.RequestsInFlight.Dec()

		return err
	}
}

// unmatchedEndpoint labels every path outside the route table.
const unmatchedEndpoint = "unmatched"

var stationEndpoints = map[string]bool{
	"verification-summary": true,
	"verification-history": true,
	"status":               true,
	"trust-score":          true,
	"verify":               true,
	"reports":              true,
}

var fixedEndpoints = map[string]bool{
	"/health/live":  true,
	"/health/ready": true,
}

// sanitizeEndpoint maps a request path to its route pattern so that label
// values stay bounded. IDs are replaced by placeholders and unknown paths
// share one label.
func sanitizeEndpoint(path string) string {
	if fixedEndpoints[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/stations/"); ok {
		id, suffix, found := strings.Cut(rest, "/")
		if id != "" && found && stationEndpoints[suffix] {
			return "/api/stations/:id/" + suffix
		}
		return unmatchedEndpoint
	}
	if rest, ok := strings.CutPrefix(path, "/api/admin/reports/"); ok {
		if id, suffix, _ := strings.Cut(rest, "/"); id != "" && suffix == "review" {
			return "/api/admin/reports/:id/review"
		}
		return unmatchedEndpoint
	}
	if rest, ok := strings.CutPrefix(path, "/api/users/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/users/:userId"
	}
	return unmatchedEndpoint
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
