// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the tracking pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundtrack_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groundtrack_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	trackDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "groundtrack_track_duration_seconds",
			Help:    "Time spent computing one ground track.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	trackPointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "groundtrack_track_points_total",
			Help: "Total number of ground-track points computed.",
		},
	)

	staleTracksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "groundtrack_stale_tracks_total",
			Help: "Tracks computed from element sets older than the staleness threshold.",
		},
	)

	catalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "groundtrack_catalog_satellites",
			Help: "Number of satellites in the loaded element-set catalog.",
		},
	)

	catalogAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "groundtrack_catalog_age_seconds",
			Help: "Age of the loaded element-set catalog in seconds.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(trackDurationSeconds)
	prometheus.MustRegister(trackPointsTotal)
	prometheus.MustRegister(staleTracksTotal)
	prometheus.MustRegister(catalogSize)
	prometheus.MustRegister(catalogAgeSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTrack records one completed track computation.
func ObserveTrack(duration time.Duration, points int, stale bool) {
	trackDurationSeconds.Observe(duration.Seconds())
	trackPointsTotal.Add(float64(points))
	if stale {
		staleTracksTotal.Inc()
	}
}

// SetCatalogSize records the number of satellites in the loaded catalog.
func SetCatalogSize(n int) {
	catalogSize.Set(float64(n))
}

// SetCatalogAge records the age of the loaded catalog in seconds.
func SetCatalogAge(seconds float64) {
	catalogAgeSeconds.Set(seconds)
}

// knownRoutes are the exact paths the server registers.
var knownRoutes = map[string]bool{
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
	"/api/v1/satellites": true,
}

// normalizeRoute collapses parameterized and unknown paths to fixed labels
// so scanner traffic and per-satellite paths cannot blow up label
// cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/track/") {
		return "/api/v1/track/{catnum}"
	}
	if strings.HasPrefix(path, "/api/v1/passes/") {
		return "/api/v1/passes/{catnum}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
