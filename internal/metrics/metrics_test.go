package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cybercase/internal/web"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func testRouter() *web.Router {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
	rt := web.NewRouter()
	rt.GET("/metrics", ok)
	rt.GET("/api/v1/cases", ok)
	rt.GET("/api/v1/cases/search", ok)
	rt.GET("/api/v1/cases/{case_id}", ok)
	rt.DELETE("/api/v1/users/{username}", ok)
	return rt
}

func TestRouteLabel(t *testing.T) {
	rt := testRouter()
	cases := map[string]string{
		"/metrics":                    "/metrics",
		"/":                           "other",
		"/favicon.ico":                "other",
		"/api/v1/cases":               "/api/v1/cases",
		"/api/v1/cases/search":        "/api/v1/cases/search",
		"/api/v1/cases/CYB-2024-0001": "/api/v1/cases/{case_id}",
		"/api/v1/users/alice":         "/api/v1/users/{username}",
		"/api/v1/junk-1":              "other",
		"/api/v1/cases/a/b":           "other",
	}
	for in, want := range cases {
		assert.Equal(t, want, RouteLabel(rt, httptest.NewRequest(http.MethodGet, in, nil)), in)
	}
	assert.Equal(t, "other", RouteLabel(nil, httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)))
}

func TestMiddleware_CountsByStatus(t *testing.T) {
	rt := testRouter()
	h := Middleware(rt)(rt)

	before := value(t, httpRequestsTotal.WithLabelValues("GET", "/api/v1/cases/{case_id}", "418"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cases/CYB-2024-0007", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := value(t, httpRequestsTotal.WithLabelValues("GET", "/api/v1/cases/{case_id}", "418"))
	assert.Equal(t, before+1, after)
}

func TestMiddleware_UnknownPathsShareOneSeries(t *testing.T) {
	rt := testRouter()
	h := Middleware(rt)(rt)

	before := value(t, httpRequestsTotal.WithLabelValues("GET", "other", "404"))
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/junk-%d", i), nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	assert.Equal(t, before+50, value(t, httpRequestsTotal.WithLabelValues("GET", "other", "404")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), "junk-")
}

func TestSetCasesByStatus_ResetsStaleLabels(t *testing.T) {
	SetCasesByStatus(map[string]int64{"Pending": 3, "Closed": 1})
	SetCasesByStatus(map[string]int64{"Pending": 2})

	assert.Equal(t, 2.0, value(t, casesByStatus.WithLabelValues("Pending")))

	ch := make(chan prometheus.Metric, 8)
	casesByStatus.Collect(ch)
	close(ch)
	assert.Len(t, ch, 1)
}

func TestHandler_Exposition(t *testing.T) {
	ObserveLogin("success")
	ObserveCaseCreated("High")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `cybercase_login_attempts_total{result="success"}`))
	assert.True(t, strings.Contains(body, `cybercase_cases_created_total{priority="High"}`))
}
