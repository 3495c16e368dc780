package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/users", http.StatusOK, 20*time.Millisecond)
	metrics.ObserveDBQuery("users_fetch_page", 5*time.Millisecond)
	metrics.RecordLogin(LoginOutcomeWrongPassword)
	metrics.RecordLogin(LoginOutcomeSuccess)
	metrics.RecordLogin(LoginOutcomeSuccess)

	assert.Equal(t, float64(3), counterValue(t, metrics, "auth_login_attempts_total"))
	assert.Equal(t, float64(1), counterValue(t, metrics, "http_requests_total"))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `auth_login_attempts_total{outcome="success"} 2`))
	assert.True(t, strings.Contains(body, "db_query_duration_seconds"))
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordLogin(LoginOutcomeSuccess)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
