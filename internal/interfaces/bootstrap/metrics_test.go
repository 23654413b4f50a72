package bootstrap

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

func TestNewMetricsServer_ExposesSweepAndRuntimeMetrics(t *testing.T) {
	reg := NewMetricsRegistry()
	c := NewComponents(testConfig(), openTestDB(t), nil, reg, logger.NewNopLogger())
	require.NotNil(t, c.Metrics)

	srv := NewMetricsServer(":0", reg)
	c.Metrics.SweepFailed(assert.AnError)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
	assert.Contains(t, string(body), "tillpoint_subscription_sweep_runs_total")
}

func TestNewMetricsServer_OnlyServesMetrics(t *testing.T) {
	srv := NewMetricsServer(":0", NewMetricsRegistry())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
