package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observers(t *testing.T) {
	m := New()

	m.ObserveMutation("deals", "update", "confirmed", 20*time.Millisecond)
	m.ObserveMutation("deals", "update", "rolled_back", 5*time.Millisecond)
	m.ObserveMutation("deals", "update", "rolled_back", 5*time.Millisecond)
	m.ObserveFetch("leads", 10*time.Millisecond, nil)
	m.ObserveFetch("leads", 10*time.Millisecond, errors.New("down"))
	m.ObserveListCache("leads", true)
	m.ObserveListCache("leads", false)
	m.RecordJobRun("demo_reset", nil)
	m.UpdateDBConnections(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("deals", "update", "confirmed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("deals", "update", "rolled_back")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListCacheLookups.WithLabelValues("leads", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("demo_reset", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DBConnections))
	assert.Equal(t, 2, testutil.CollectAndCount(m.FetchDuration))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.ObserveListCache("deals", true)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ListCacheLookups.WithLabelValues("deals", "hit")))
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/leads/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads/42", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/leads/:id", "200")))

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/api/v1/leads/:id",status="200"} 1`))
}
