// ABOUTME: Prometheus collectors for webhook calls, console logins and HTTP requests
// ABOUTME: Uses a private registry so tests and multiple servers never collide

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the console's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	WebhookRequests *prometheus.CounterVec
	WebhookDuration *prometheus.HistogramVec
	Logins          *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WebhookRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_requests_total",
				Help: "Total webhook backend requests",
			},
			[]string{"op", "outcome"},
		),
		WebhookDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webhook_request_duration_seconds",
				Help:    "Latency of webhook backend requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_logins_total",
				Help: "Admin console login attempts",
			},
			[]string{"outcome"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		m.WebhookRequests,
		m.WebhookDuration,
		m.Logins,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// WatchConsole registers gauges that sample the admin console's in-memory
// state on every scrape.
func (m *Metrics) WatchConsole(activeShells, formTokens func() int) error {
	if m == nil {
		return nil
	}
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "console_active_sessions",
				Help: "Admin sessions with console state in memory",
			},
			func() float64 { return float64(activeShells()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "console_form_tokens",
				Help: "Form tokens tracked for double-submit detection",
			},
			func() float64 { return float64(formTokens()) },
		),
	}
	for _, g := range gauges {
		if err := m.registry.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// ObserveWebhook records one webhook call.
func (m *Metrics) ObserveWebhook(op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.WebhookRequests.WithLabelValues(op, outcome).Inc()
	m.WebhookDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveLogin records one login attempt.
func (m *Metrics) ObserveLogin(ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeFailure
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency labelled by the ServeMux pattern.
// It must wrap the mux directly so the matched pattern is visible.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.HTTPDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
