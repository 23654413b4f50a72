package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/interfaces/http/handlers/testutil"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

func okPinger() Pinger {
	return PingerFunc(func(context.Context) error { return nil })
}

func TestHealthHandler_AllDependenciesUp(t *testing.T) {
	handler := NewHealthHandler(map[string]Pinger{
		"database": okPinger(),
		"redis":    okPinger(),
	}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
	handler.HealthCheck(c)

	require.Equal(t, http.StatusOK, w.Code)
	var got HealthResponse
	resp, err := testutil.ParseData(w, &got)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, got.Checks)
}

func TestHealthHandler_DependencyDown(t *testing.T) {
	handler := NewHealthHandler(map[string]Pinger{
		"database": okPinger(),
		"redis":    PingerFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") }),
		"skipped":  nil,
	}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
	handler.HealthCheck(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var got HealthResponse
	resp, err := testutil.ParseData(w, &got)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "degraded", got.Status)
	assert.Equal(t, "unavailable", got.Checks["redis"])
	assert.Equal(t, "ok", got.Checks["database"])
	assert.NotContains(t, got.Checks, "skipped")
}
