// ABOUTME: Prometheus metrics for the gateway's authorization and delivery paths.
// ABOUTME: Registers counters/histograms and provides HTTP instrumentation middleware.

package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsroom_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsroom_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ToolExecutions counts tool invocations by tool name and outcome.
	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsroom_tool_executions_total",
			Help: "Tool invocations by name and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	// PermissionDenials counts failed authorization checks by surface.
	PermissionDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsroom_permission_denials_total",
			Help: "Failed authorization checks by surface.",
		},
		[]string{"surface"},
	)

	// WebhookDeliveries counts webhook delivery attempts by event and outcome.
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsroom_webhook_deliveries_total",
			Help: "Webhook delivery attempts by event and outcome.",
		},
		[]string{"event", "outcome"},
	)

	// WebhookExhausted counts deliveries that ran out of retries.
	WebhookExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsroom_webhook_exhausted_total",
			Help: "Webhook deliveries that exhausted their retry budget.",
		},
		[]string{"event"},
	)

	// ArticleTransitions counts workflow transitions by action.
	ArticleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsroom_article_transitions_total",
			Help: "Article workflow transitions by action.",
		},
		[]string{"action"},
	)
)

// Init registers all gateway metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		ToolExecutions,
		PermissionDenials,
		WebhookDeliveries,
		WebhookExhausted,
		ArticleTransitions,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusWriter captures the response status code for instrumentation.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument wraps a handler with request count and latency recording.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.code)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
