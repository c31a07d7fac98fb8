package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New("")
	b := New("")
	a.ObserveCacheHit("categories")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheHitsTotal.WithLabelValues("categories")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheHitsTotal.WithLabelValues("categories")))
}

func TestRecorders(t *testing.T) {
	m := New("test")
	m.RecordHTTPRequest("GET", "/api/v1/categories", 200, 10*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/v1/categories", 404, time.Millisecond)
	m.ObserveCacheMiss("categories")
	m.RecordRateLimited("global")
	m.RecordAuthEvent("login_success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/categories", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/categories", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("categories")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitRejected.WithLabelValues("global")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthEventsTotal.WithLabelValues("login_success")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New("catalog")
	m.RecordRateLimited("categories")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `catalog_ratelimit_rejected_total{policy="categories"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(201))
	assert.Equal(t, "3xx", statusClass(304))
	assert.Equal(t, "4xx", statusClass(429))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "unknown", statusClass(100))
}
