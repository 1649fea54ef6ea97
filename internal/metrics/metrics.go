// Package metrics exposes Prometheus collectors for the site service.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ocakbasi"

// Metrics owns a private registry and every collector the service reports.
// It satisfies querycache.Observer and ratelimit.Observer.
type Metrics struct {
	registry *prometheus.Registry

	cacheRequests   *prometheus.CounterVec
	fetchErrors     *prometheus.CounterVec
	rateLimit       *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	adminActions    *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New builds the collectors on a fresh registry, including Go runtime and process collectors.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_cache_requests_total",
		Help:      "Content cache lookups by key and result (hit, miss).",
	}, []string{"key", "result"})

	m.fetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_fetch_errors_total",
		Help:      "Failed content store reads, counted per attempt.",
	}, []string{"key"})

	m.rateLimit = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_decisions_total",
		Help:      "Rate limiter decisions by outcome (allowed, denied, fail_open).",
	}, []string{"outcome"})

	m.submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Public form submissions by kind and outcome.",
	}, []string{"kind", "outcome"})

	m.adminActions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_user_actions_total",
		Help:      "Admin user lifecycle actions by action and outcome.",
	}, []string{"action", "outcome"})

	m.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Submission notifications processed by the worker.",
	}, []string{"outcome"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "code"})

	for _, c := range []prometheus.Collector{
		m.cacheRequests,
		m.fetchErrors,
		m.rateLimit,
		m.submissions,
		m.adminActions,
		m.notifications,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// Instrument records request latency for route.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerDuration(
		m.requestDuration.MustCurryWith(prometheus.Labels{"route": route}),
		next,
	)
}

func (m *Metrics) CacheHit(key string)   { m.cacheRequests.WithLabelValues(key, "hit").Inc() }
func (m *Metrics) CacheMiss(key string)  { m.cacheRequests.WithLabelValues(key, "miss").Inc() }
func (m *Metrics) FetchError(key string) { m.fetchErrors.WithLabelValues(key).Inc() }

func (m *Metrics) RateLimitDecision(outcome string) {
	m.rateLimit.WithLabelValues(outcome).Inc()
}

// RecordSubmission counts a reservation or application attempt.
func (m *Metrics) RecordSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind, outcome).Inc()
}

// RecordAdminAction counts invite and remove calls.
func (m *Metrics) RecordAdminAction(action, outcome string) {
	if m == nil {
		return
	}
	m.adminActions.WithLabelValues(action, outcome).Inc()
}

// RecordNotification counts worker deliveries.
func (m *Metrics) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}
