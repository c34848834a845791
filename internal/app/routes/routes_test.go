package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/internal/test/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	c      *container.ServiceContainer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWTSecretKey:        "test-secret",
		JWTExpire:           time.Hour,
		CacheTTL:            time.Minute,
		NotificationWorkers: 1,
	}
	c := container.NewServiceContainer(db, cfg, container.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &testServer{t: t, router: SetupRouter(ctx, c, cfg), c: c}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
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
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) tokenFor(role rules.Role) string {
	s.t.Helper()
	db := s.c.GetDB()
	user := testutil.CreateUser(s.t, db, role)
	token, _, err := s.c.GetService("jwt").(services.InterfaceJWTService).GenerateToken(user)
	require.NoError(s.t, err)
	return token
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(http.MethodGet, "/api/v1/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, code.ErrSuccess, env.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, code.ErrNotFound, env.Code)
}

func TestRegisterThenMe(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "jane",
		"email":    "jane@example.com",
		"password": "Secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	w, env = s.do(http.MethodGet, "/api/v1/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "jane", me.Username)
	assert.Equal(t, string(rules.RoleUser), me.Role)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login":    "jane@example.com",
		"password": "Secret123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "weak",
		"email":    "weak@example.com",
		"password": "password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/v1/users/me", "/api/v1/notifications", "/api/v1/assessments/mine", "/api/v1/criteria"} {
		w, _ := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w, _ := s.do(http.MethodGet, "/api/v1/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPermissionGuards(t *testing.T) {
	s := newTestServer(t)
	user := s.tokenFor(rules.RoleUser)
	admin := s.tokenFor(rules.RoleAdmin)
	super := s.tokenFor(rules.RoleSuperadmin)

	w, _ := s.do(http.MethodGet, "/api/v1/statistics/overview", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/statistics/overview", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/audit-logs", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/audit-logs", super, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/users", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/users", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/criteria", user, map[string]interface{}{"name": "Ramp"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCatalogIsPublicAndCached(t *testing.T) {
	s := newTestServer(t)
	super := s.tokenFor(rules.RoleSuperadmin)

	w, _ := s.do(http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w, _ = s.do(http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w, _ = s.do(http.MethodPost, "/api/v1/categories", "", map[string]string{"name": "Museum"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/categories", super, map[string]string{"name": "Museum"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"), "a successful write purges the cache")
	assert.Contains(t, string(env.Data), "Museum")
}

func TestLocationReadsAreAnonymous(t *testing.T) {
	s := newTestServer(t)
	db := s.c.GetDB()
	owner := testutil.CreateUser(t, db, rules.RoleUser)
	loc := testutil.CreateLocation(t, db, testutil.CreateGeo(t, db), owner)

	w, env := s.do(http.MethodGet, "/api/v1/locations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), loc.Name)

	w, _ = s.do(http.MethodGet, "/api/v1/locations/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/locations", "", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRealtimeDisabledWithoutPusher(t *testing.T) {
	s := newTestServer(t)
	token := s.tokenFor(rules.RoleUser)
	w, _ := s.do(http.MethodGet, "/api/v1/ws", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/v1/ping", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
