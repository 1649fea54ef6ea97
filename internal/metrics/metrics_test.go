package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserversIncrementCounters(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.CacheHit("menu")
	m.CacheHit("menu")
	m.CacheMiss("menu")
	m.FetchError("awards")
	m.RateLimitDecision("denied")
	m.RecordSubmission("reservation", "created")
	m.RecordAdminAction("invite", "ok")

	if got := testutil.ToFloat64(m.cacheRequests.WithLabelValues("menu", "hit")); got != 2 {
		t.Fatalf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheRequests.WithLabelValues("menu", "miss")); got != 1 {
		t.Fatalf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.fetchErrors.WithLabelValues("awards")); got != 1 {
		t.Fatalf("fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rateLimit.WithLabelValues("denied")); got != 1 {
		t.Fatalf("denied = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.submissions.WithLabelValues("reservation", "created")); got != 1 {
		t.Fatalf("submissions = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.CacheMiss("hero_slides")
	h := m.Instrument("content", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/content/hero", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`ocakbasi_content_cache_requests_total{key="hero_slides",result="miss"} 1`,
		`ocakbasi_http_request_duration_seconds_count{code="200",route="content"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordSubmission("reservation", "created")
	m.RecordAdminAction("remove", "ok")
	m.RecordNotification("delivered")
	next := http.NotFoundHandler()
	if m.Instrument("x", next) == nil {
		t.Fatalf("expected passthrough handler")
	}
}
