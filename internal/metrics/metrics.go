package metrics

import (
	"net/http"
	"strconv"
	"time"

	"cybercase/internal/web"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cybercase_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cybercase_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	casesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cybercase_cases_created_total",
		Help: "Cases created, by priority",
	}, []string{"priority"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cybercase_login_attempts_total",
		Help: "Login attempts, by result",
	}, []string{"result"})

	dashboardRefresh = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cybercase_dashboard_refresh_duration_seconds",
		Help:    "Time spent building a dashboard snapshot",
		Buckets: prometheus.DefBuckets,
	})

	casesByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cybercase_cases_by_status",
		Help: "Stored cases per status as of the last dashboard refresh",
	}, []string{"status"})
)

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func ObserveCaseCreated(priority string) {
	casesCreated.WithLabelValues(priority).Inc()
}

// ObserveLogin records a login attempt; result is "success", "failure" or "error".
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

func ObserveDashboardRefresh(d time.Duration) {
	dashboardRefresh.Observe(d.Seconds())
}

// SetCasesByStatus replaces the per-status gauges with counts.
func SetCasesByStatus(counts map[string]int64) {
	casesByStatus.Reset()
	for status, n := range counts {
		casesByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RouteMatcher reports the registered route pattern a request maps to.
type RouteMatcher interface {
	Pattern(r *http.Request) string
}

// Middleware records count and latency of every request, labelled by the
// matched route pattern.
func Middleware(routes RouteMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := RouteLabel(routes, r)
			start := time.Now()
			sw := web.NewStatusWriter(w)
			next.ServeHTTP(sw, r)
			ObserveHTTPRequest(r.Method, route, sw.Status(), time.Since(start))
		})
	}
}

// RouteLabel is the registered pattern for r. Every unmatched path shares
// "other" so label cardinality is bounded by the route table.
func RouteLabel(routes RouteMatcher, r *http.Request) string {
	if routes == nil {
		return "other"
	}
	if p := routes.Pattern(r); p != "" {
		return p
	}
	return "other"
}
