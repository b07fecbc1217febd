package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector of the back-office server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Upstream API calls.
	BackendCallsTotal   *prometheus.CounterVec
	BackendCallDuration *prometheus.HistogramVec

	// Onboarding flow.
	TransitionsTotal        *prometheus.CounterVec
	ValidationFailuresTotal *prometheus.CounterVec
	ActiveConsoles          prometheus.Gauge

	RateLimitRejectionsTotal *prometheus.CounterVec

	// Journal collector.
	JournalFlushesTotal *prometheus.CounterVec
	JournalEventsTotal  prometheus.Counter

	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ebr_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ebr_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		HTTPResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ebr_http_response_size_bytes",
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path_pattern"}),

		BackendCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ebr_backend_calls_total",
			Help: "Total number of upstream API calls.",
		}, []string{"endpoint", "method", "status_code"}),

		BackendCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ebr_backend_call_duration_seconds",
			Help:    "Upstream API call duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ebr_onboarding_transitions_total",
			Help: "Total number of onboarding state transitions.",
		}, []string{"from", "to", "event"}),

		ValidationFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ebr_validation_failures_total",
			Help: "Total number of forms rejected before reaching the upstream.",
		}, []string{"form"}),

		ActiveConsoles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebr_active_consoles",
			Help: "Number of browser sessions with a live orchestrator.",
		}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ebr_ratelimit_rejections_total",
			Help: "Total number of throttled submissions.",
		}, []string{"scope"}),

		JournalFlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ebr_journal_flushes_total",
			Help: "Total number of journal flushes.",
		}, []string{"status"}),

		JournalEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ebr_journal_events_total",
			Help: "Total number of journal events flushed.",
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebr_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.BackendCallsTotal,
		m.BackendCallDuration,
		m.TransitionsTotal,
		m.ValidationFailuresTotal,
		m.ActiveConsoles,
		m.RateLimitRejectionsTotal,
		m.JournalFlushesTotal,
		m.JournalEventsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Exposition serves the registry in the Prometheus text format.
func (m *Metrics) Exposition() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, pattern string, status int, seconds float64, bytes int) {
	if pattern == "" {
		pattern = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pattern).Observe(seconds)
	m.HTTPResponseSize.WithLabelValues(method, pattern).Observe(float64(bytes))
}

// ObserveBackendCall records an upstream call. Transport failures carry
// status code 0.
func (m *Metrics) ObserveBackendCall(endpoint, method string, statusCode int, seconds float64) {
	m.BackendCallsTotal.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
	m.BackendCallDuration.WithLabelValues(endpoint).Observe(seconds)
}

func (m *Metrics) ObserveTransition(from, to, event string) {
	m.TransitionsTotal.WithLabelValues(from, to, event).Inc()
}

func (m *Metrics) ObserveValidationFailure(form string) {
	m.ValidationFailuresTotal.WithLabelValues(form).Inc()
}

// SetActiveConsoles sets the live browser session gauge.
func (m *Metrics) SetActiveConsoles(n int) {
	m.ActiveConsoles.Set(float64(n))
}

// IncRateLimitRejection increments the rejection counter for scope.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// ObserveJournalFlush records a journal flush of count events.
func (m *Metrics) ObserveJournalFlush(count int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.JournalFlushesTotal.WithLabelValues(status).Inc()
	if err == nil {
		m.JournalEventsTotal.Add(float64(count))
	}
}
