package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BradenHooton/investment-portal/internal/auth"
	"github.com/BradenHooton/investment-portal/internal/brokerage"
	"github.com/BradenHooton/investment-portal/internal/handlers"
	"github.com/BradenHooton/investment-portal/internal/middleware"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/routes"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/BradenHooton/investment-portal/internal/session"
	pkgauth "github.com/BradenHooton/investment-portal/pkg/auth"
	pkglogger "github.com/BradenHooton/investment-portal/pkg/logger"
)

func init() {
	pkgauth.BcryptCost = bcrypt.MinCost
}

type testServer struct {
	*httptest.Server
	admins *services.MemoryAdminUserRepository
	store  *session.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clients := services.NewMemoryClientRepository()
	admins := services.NewMemoryAdminUserRepository()
	audit := services.NewAuditService(services.NewMemoryAuditLogRepository(admins), logger)
	provider := brokerage.NewFixtureProvider()

	store := session.NewMemoryStore()
	manager := session.NewManager(
		store,
		auth.NewSessionTokenSigner("routes-test-secret-0123456789"),
		auth.CookieConfig{Name: "portal_session", SameSite: "lax"},
		time.Hour,
		logger,
	)

	clientAuth := services.NewClientAuthService(clients, nil, pkglogger.NewAuthEventLogger(logger), logger)
	adminSvc := services.NewAdminService(admins, clients, audit, provider, nil, logger)
	brokerageSvc := services.NewBrokerageService(provider, clients, logger)

	router := chi.NewRouter()
	routes.RegisterRoutes(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(clientAuth, manager, nil, logger),
		Admin:     handlers.NewAdminHandler(adminSvc, manager, nil, logger),
		Brokerage: handlers.NewBrokerageHandler(brokerageSvc, manager, logger),
	}, manager.Middleware, middleware.RateLimitConfig{RequestsPerMinute: 1000})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, admins: admins, store: store}
}

func (s *testServer) seedAdmin(t *testing.T, username, password string) *models.AdminUser {
	t.Helper()

	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)
	a, err := s.admins.Create(context.Background(), &models.AdminUser{
		Username:     username,
		Email:        username + "@portal.test",
		PasswordHash: hash,
		FirstName:    "Ada",
		LastName:     "Admin",
		Role:         models.AdminRoleSuperAdmin,
		IsActive:     true,
	})
	require.NoError(t, err)
	return a
}

// browser returns an HTTP client with its own cookie jar.
func (s *testServer) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (s *testServer) do(t *testing.T, c *http.Client, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// ── scenarios ────────────────────────────────────────────────────────────────

func TestScenario_SuspendedClientCannotLogIn(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAdmin(t, "ops", "adminpass")
	client := srv.browser(t)
	staff := srv.browser(t)

	status, body := srv.do(t, client, http.MethodPost, "/api/auth/register", map[string]string{
		"email":      "Jane@Example.com",
		"password":   "secret123",
		"first_name": "Jane",
		"last_name":  "Doe",
	})
	require.Equal(t, http.StatusCreated, status, body)
	registered := body["client"].(map[string]interface{})
	clientID := int64(registered["id"].(float64))
	assert.Equal(t, "jane@example.com", registered["email"])

	status, body = srv.do(t, client, http.MethodGet, "/api/auth/status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["authenticated"])

	status, _ = srv.do(t, staff, http.MethodPost, "/api/admin/login", map[string]string{
		"username": "ops",
		"password": "adminpass",
	})
	require.Equal(t, http.StatusOK, status)

	status, body = srv.do(t, staff, http.MethodGet, "/api/admin/clients?status=active", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["total"])

	status, body = srv.do(t, staff, http.MethodPut, "/api/admin/clients/"+strconv.FormatInt(clientID, 10)+"/status", map[string]bool{
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Client suspended successfully", body["message"])

	status, _ = srv.do(t, client, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = srv.do(t, client, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "account is deactivated", body["error"])

	status, body = srv.do(t, staff, http.MethodGet, "/api/admin/audit-logs", nil)
	require.Equal(t, http.StatusOK, status)
	logs := body["logs"].([]interface{})
	require.Len(t, logs, 3)
	newest := logs[0].(map[string]interface{})
	assert.Equal(t, models.AuditActionSuspendClient, newest["action"])
	assert.Equal(t, "ops", newest["admin_username"])
	assert.Equal(t, "Status changed from true to false", newest["details"])
}

func TestScenario_ClientAndAdminShareOneSession(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAdmin(t, "ops", "adminpass")
	b := srv.browser(t)

	status, _ := srv.do(t, b, http.MethodPost, "/api/auth/register", map[string]string{
		"email":      "both@example.com",
		"password":   "secret123",
		"first_name": "Bo",
		"last_name":  "Th",
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = srv.do(t, b, http.MethodPost, "/api/admin/login", map[string]string{
		"username": "ops",
		"password": "adminpass",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = srv.do(t, b, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := srv.do(t, b, http.MethodGet, "/api/admin/me", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ops", body["username"])

	status, body = srv.do(t, b, http.MethodGet, "/api/auth/status", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["authenticated"])
	assert.Nil(t, body["id"])
}

func TestScenario_AdminLogoutDestroysEmptySession(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAdmin(t, "ops", "adminpass")
	b := srv.browser(t)

	status, _ := srv.do(t, b, http.MethodPost, "/api/admin/login", map[string]string{
		"username": "ops",
		"password": "adminpass",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, srv.store.Len())

	status, _ = srv.do(t, b, http.MethodPost, "/api/admin/logout", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, srv.store.Len())

	status, body := srv.do(t, b, http.MethodGet, "/api/admin/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "admin authentication required", body["error"])
}

func TestScenario_BrokerageLinkLifecycle(t *testing.T) {
	srv := newTestServer(t)
	b := srv.browser(t)

	status, body := srv.do(t, b, http.MethodGet, "/api/brokerage/portfolio", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No connected account found", body["error"])

	status, body = srv.do(t, b, http.MethodPost, "/api/brokerage/create-link-token", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, brokerage.FixtureLinkToken, body["link_token"])

	status, _ = srv.do(t, b, http.MethodPost, "/api/brokerage/exchange-public-token", map[string]string{
		"public_token": "public-sandbox-1",
	})
	require.Equal(t, http.StatusOK, status)

	status, body = srv.do(t, b, http.MethodGet, "/api/brokerage/status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["connected"])

	status, body = srv.do(t, b, http.MethodGet, "/api/brokerage/portfolio", nil)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 125750.50, body["total_value"], 0.001)

	status, body = srv.do(t, b, http.MethodGet, "/api/brokerage/transactions?start_date=2026-01-01&end_date=2026-01-31", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-01-01", body["start_date"])

	status, _ = srv.do(t, b, http.MethodPost, "/api/brokerage/disconnect", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = srv.do(t, b, http.MethodGet, "/api/brokerage/holdings", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestScenario_TamperedCookieIsAnonymous(t *testing.T) {
	srv := newTestServer(t)
	b := srv.browser(t)

	status, _ := srv.do(t, b, http.MethodPost, "/api/auth/register", map[string]string{
		"email":      "jane@example.com",
		"password":   "secret123",
		"first_name": "Jane",
		"last_name":  "Doe",
	})
	require.Equal(t, http.StatusCreated, status)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/profile", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: "forged.token.value"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
