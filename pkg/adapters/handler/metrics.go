package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	shortLinkHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shorts_hits_total",
		Help: "Total number of recorded short link traversals",
	})
)

// Metrics records Prometheus metrics for each request
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := routeLabel(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

// routeLabel folds per-link paths into their route so label cardinality
// stays bounded.
func routeLabel(path string) string {
	for _, prefix := range []string{"/x/", "/info/", "/delete/"} {
		if strings.HasPrefix(path, prefix) {
			return prefix + "{short}"
		}
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/"
	}
	switch path {
	case "/", "/submit", "/healthz", "/metrics",
		"/account/create", "/account/login", "/account/logout",
		"/auth/google/login", "/auth/google/callback":
		return path
	}
	return "other"
}
