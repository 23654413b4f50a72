package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/infrastructure/auth"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
	"github.com/tillpoint/tillpoint/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "middleware-test-secret"

func newAuthEngine(t *testing.T, chain ...func(m *AuthMiddleware) gin.HandlerFunc) *gin.Engine {
	t.Helper()

	m := NewAuthMiddleware(auth.NewJWTService(testSecret, 15), logger.NewNopLogger())
	engine := gin.New()

	handlers := make([]gin.HandlerFunc, 0, len(chain)+1)
	for _, mw := range chain {
		handlers = append(handlers, mw(m))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant_id": c.GetString(constants.ContextKeyTenantID),
			"role":      c.GetString(constants.ContextKeyUserRole),
		})
	})
	engine.GET("/guarded", handlers...)
	return engine
}

func issueToken(t *testing.T, tenantID, role string) string {
	t.Helper()
	token, err := auth.NewJWTService(testSecret, 15).Generate(tenantID, role)
	require.NoError(t, err)
	return token
}

func doGet(engine *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func requireAuth(m *AuthMiddleware) gin.HandlerFunc   { return m.RequireAuth() }
func requireTenant(m *AuthMiddleware) gin.HandlerFunc { return m.RequireTenant() }
func requireAdmin(m *AuthMiddleware) gin.HandlerFunc  { return m.RequireAdmin() }

func TestRequireAuth_SetsClaimsInContext(t *testing.T) {
	engine := newAuthEngine(t, requireAuth)

	w := doGet(engine, "Bearer "+issueToken(t, "store-1", constants.RoleMember))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "store-1", body["tenant_id"])
	assert.Equal(t, constants.RoleMember, body["role"])
}

func TestRequireAuth_Rejects(t *testing.T) {
	other, err := auth.NewJWTService("another-secret", 15).Generate("store-1", constants.RoleMember)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "empty bearer", header: "Bearer "},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "foreign signature", header: "Bearer " + other},
	}

	engine := newAuthEngine(t, requireAuth)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(engine, tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var resp utils.APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
		})
	}
}

func TestRequireTenant(t *testing.T) {
	engine := newAuthEngine(t, requireAuth, requireTenant)

	t.Run("tenant token passes", func(t *testing.T) {
		w := doGet(engine, "Bearer "+issueToken(t, "store-1", constants.RoleMember))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("admin token without tenant is forbidden", func(t *testing.T) {
		w := doGet(engine, "Bearer "+issueToken(t, "", constants.RoleAdmin))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	engine := newAuthEngine(t, requireAuth, requireAdmin)

	t.Run("admin passes", func(t *testing.T) {
		w := doGet(engine, "Bearer "+issueToken(t, "", constants.RoleAdmin))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		w := doGet(engine, "Bearer "+issueToken(t, "store-1", constants.RoleMember))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unauthenticated never reaches the role check", func(t *testing.T) {
		w := doGet(engine, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
