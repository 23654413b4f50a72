package http

import (
	"bytes"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint/internal/infrastructure/auth"
	"github.com/tillpoint/tillpoint/internal/infrastructure/config"
	"github.com/tillpoint/tillpoint/internal/infrastructure/migration"
	sharedConfig "github.com/tillpoint/tillpoint/internal/shared/config"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

const routerTestSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	engine *gin.Engine
	redis  *miniredis.Miniredis
	jwt    *auth.JWTService
}

func newTestServer(t *testing.T, freeMode bool) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(migration.Models()...))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Server:       sharedConfig.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Auth:         sharedConfig.AuthConfig{JWT: sharedConfig.JWTConfig{Secret: routerTestSecret, AccessExpMinutes: 15}},
		Subscription: sharedConfig.SubscriptionConfig{GracePeriodDays: 7, ExpiringSoonThresholdDays: 3},
		Enforcement:  sharedConfig.EnforcementConfig{FreeMode: freeMode},
		Sweep:        sharedConfig.SweepConfig{Enabled: false, BatchSize: 50, Concurrency: 2, Timeout: time.Minute, CheckpointTTL: time.Hour},
	}

	container, err := NewContainer(cfg, db, client, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Shutdown() })

	router := NewRouter(container)
	router.SetupRoutes()

	return &testServer{
		engine: router.GetEngine(),
		redis:  mr,
		jwt:    auth.NewJWTService(routerTestSecret, 15),
	}
}

func (s *testServer) token(t *testing.T, tenantID, role string) string {
	t.Helper()
	token, err := s.jwt.Generate(tenantID, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env apiEnvelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestRouter_TenantLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	admin := s.token(t, "", constants.RoleAdmin)
	member := s.token(t, "store-1", constants.RoleMember)

	// unknown tenant has no subscription
	w, env := s.do(t, nethttp.MethodGet, "/enforcement/access", member, nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	var access struct {
		AccessLevel    string `json:"access_level"`
		Status         string `json:"status"`
		CanMakePayment bool   `json:"can_make_payment"`
		Verified       bool   `json:"verified"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &access))
	assert.Equal(t, "none", access.AccessLevel)

	w, _ = s.do(t, nethttp.MethodPost, "/admin/tenants", admin, map[string]interface{}{
		"tenant_id":     "store-1",
		"name":          "Corner Store",
		"plan_code":     "pos-basic",
		"billing_cycle": "monthly",
		"trial":         true,
	})
	require.Equal(t, nethttp.StatusCreated, w.Code, w.Body.String())

	w, env = s.do(t, nethttp.MethodGet, "/enforcement/access", member, nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &access))
	assert.Equal(t, "full", access.AccessLevel)
	assert.Equal(t, "trial", access.Status)
	assert.True(t, access.Verified)

	w, _ = s.do(t, nethttp.MethodGet, "/enforcement/check/pos", member, nil)
	assert.Equal(t, nethttp.StatusOK, w.Code)

	w, _ = s.do(t, nethttp.MethodPost, "/admin/tenants/store-1/subscription/cancel", admin, map[string]string{"reason": "closed"})
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())

	w, env = s.do(t, nethttp.MethodGet, "/enforcement/check/pos", member, nil)
	assert.Equal(t, nethttp.StatusPaymentRequired, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "payment_required", env.Error.Type)

	w, env = s.do(t, nethttp.MethodGet, "/enforcement/can-operate", member, nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	var perms map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &perms))
	assert.Equal(t, false, perms["can_read"])

	// cancelled is terminal
	w, _ = s.do(t, nethttp.MethodPost, "/admin/tenants/store-1/subscription/reactivate", admin, nil)
	assert.Equal(t, nethttp.StatusConflict, w.Code)
}

func TestRouter_AdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t, false)
	member := s.token(t, "store-1", constants.RoleMember)

	w, _ := s.do(t, nethttp.MethodPost, "/admin/sweeps", member, nil)
	assert.Equal(t, nethttp.StatusForbidden, w.Code)

	w, _ = s.do(t, nethttp.MethodPost, "/admin/sweeps", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
}

func TestRouter_EnforcementRequiresTenantToken(t *testing.T) {
	s := newTestServer(t, false)

	w, _ := s.do(t, nethttp.MethodGet, "/enforcement/access", s.token(t, "", constants.RoleAdmin), nil)
	assert.Equal(t, nethttp.StatusForbidden, w.Code)

	w, _ = s.do(t, nethttp.MethodGet, "/enforcement/warnings", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
}

func TestRouter_SweepAndMetrics(t *testing.T) {
	s := newTestServer(t, false)
	admin := s.token(t, "", constants.RoleAdmin)

	w, _ := s.do(t, nethttp.MethodPost, "/admin/tenants", admin, map[string]interface{}{
		"tenant_id":     "store-2",
		"name":          "Night Market",
		"plan_code":     "pos-daily",
		"billing_cycle": "daily",
		"period_start":  time.Now().UTC().Add(-48 * time.Hour),
		"period_end":    time.Now().UTC().Add(-24 * time.Hour),
	})
	require.Equal(t, nethttp.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(t, nethttp.MethodPost, "/admin/sweeps", admin, nil)
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())
	var summary struct {
		SuspendedCount int  `json:"suspended_count"`
		Interrupted    bool `json:"interrupted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.SuspendedCount)
	assert.False(t, summary.Interrupted)
	assert.False(t, s.redis.Exists(constants.RedisKeySweepCheckpoint), "completed pass clears its checkpoint")

	w, _ = s.do(t, nethttp.MethodGet, "/metrics", "", nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `tillpoint_subscription_sweep_runs_total{outcome="completed"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_FreeModeGrantsFullAccess(t *testing.T) {
	s := newTestServer(t, true)

	w, env := s.do(t, nethttp.MethodGet, "/enforcement/access", s.token(t, "store-unknown", constants.RoleMember), nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	var access struct {
		AccessLevel string `json:"access_level"`
		Message     string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &access))
	assert.Equal(t, "full", access.AccessLevel)
	assert.Equal(t, "Access enforcement disabled", access.Message)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, false)

	w, env := s.do(t, nethttp.MethodGet, "/health", "", nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, w.Header().Get(constants.HeaderXRequestID))

	s.redis.SetError("LOADING Redis is loading the dataset in memory")
	w, _ = s.do(t, nethttp.MethodGet, "/health", "", nil)
	assert.Equal(t, nethttp.StatusServiceUnavailable, w.Code)
}
