package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replydesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "replydesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replydesk_auth_attempts_total",
		Help: "Signup and login attempts by result",
	}, []string{"operation", "result"})

	replyGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replydesk_reply_generations_total",
		Help: "Generated replies by generator mode and outcome",
	}, []string{"mode", "outcome"})

	completionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "replydesk_completion_request_duration_seconds",
		Help:    "Duration of outbound chat-completion calls",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	})

	liveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "replydesk_websocket_connections",
		Help: "Number of open chat websocket connections",
	})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveAuth counts a signup or login attempt.
func ObserveAuth(operation, result string) {
	authAttempts.WithLabelValues(operation, result).Inc()
}

// ObserveReply counts a generated reply. Outcome is "ok", "template" or "apology".
func ObserveReply(mode, outcome string) {
	replyGenerations.WithLabelValues(mode, outcome).Inc()
}

// ObserveCompletion records the latency of one upstream completion call.
func ObserveCompletion(duration time.Duration) {
	completionDuration.Observe(duration.Seconds())
}

// IncrementLive increments the open websocket gauge.
func IncrementLive() {
	liveConnections.Inc()
}

// DecrementLive decrements the open websocket gauge.
func DecrementLive() {
	liveConnections.Dec()
}
