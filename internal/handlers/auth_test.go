package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/investment-portal/internal/handlers"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/BradenHooton/investment-portal/internal/session"
)

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}

// ── Register ─────────────────────────────────────────────────────────────────

func TestRegister_Success_Returns201(t *testing.T) {
	var got services.RegisterInput
	var gotSession *session.Session
	svc := &handlers.MockClientAuthService{
		RegisterFunc: func(ctx context.Context, sess *session.Session, in services.RegisterInput, meta services.RequestMeta) (*models.Client, error) {
			got = in
			gotSession = sess
			return sampleClient(), nil
		},
	}
	saver := &handlers.MockSessionSaver{}
	h := newAuthHandler(svc, saver)

	req := handlers.NewTestRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":      "jane@example.com",
		"password":   "secret123",
		"first_name": "Jane",
		"last_name":  "Doe",
		"phone":      "555-0100",
		"ignored":    "x",
	})
	sess := session.New()
	w := httptest.NewRecorder()
	h.Register(w, handlers.WithSession(req, sess))

	var resp handlers.ClientMessageResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "Registration successful", resp.Message)
	assert.Equal(t, int64(7), resp.Client.ID)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "Jane", got.FirstName)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "555-0100", *got.Phone)
	assert.Same(t, sess, gotSession)
	assert.Equal(t, 1, saver.Saved)
}

func TestRegister_ResponseOmitsSecrets(t *testing.T) {
	svc := &handlers.MockClientAuthService{
		RegisterFunc: func(ctx context.Context, sess *session.Session, in services.RegisterInput, meta services.RequestMeta) (*models.Client, error) {
			c := sampleClient()
			c.PasswordHash = "$2a$12$hash"
			token := "demo_access_token_12345"
			c.BrokerageAccessToken = &token
			return c, nil
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "a@b.c"}))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "demo_access_token_12345")
}

func TestRegister_Conflict_Returns409(t *testing.T) {
	svc := &handlers.MockClientAuthService{
		RegisterFunc: func(ctx context.Context, sess *session.Session, in services.RegisterInput, meta services.RequestMeta) (*models.Client, error) {
			return nil, models.ConflictError("email already registered")
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "jane@example.com"}))

	handlers.AssertErrorResponse(t, w, http.StatusConflict, "email already registered")
}

func TestRegister_FieldTooLong_Returns400(t *testing.T) {
	h := newAuthHandler(&handlers.MockClientAuthService{}, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"phone": "123456789012345678901",
	}))

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "phone must have a maximum of 20 characters")
}

// ── Login ────────────────────────────────────────────────────────────────────

func TestLogin_Success_Returns200(t *testing.T) {
	var gotMeta services.RequestMeta
	svc := &handlers.MockClientAuthService{
		LoginFunc: func(ctx context.Context, sess *session.Session, email, password string, meta services.RequestMeta) (*models.Client, error) {
			gotMeta = meta
			assert.Equal(t, "jane@example.com", email)
			assert.Equal(t, "secret123", password)
			return sampleClient(), nil
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	req := handlers.NewTestRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "secret123",
	})
	req.RemoteAddr = "203.0.113.9:4242"
	req.Header.Set("User-Agent", "portal-test")
	w := httptest.NewRecorder()
	h.Login(w, req)

	var resp handlers.ClientMessageResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, "jane@example.com", resp.Client.Email)
	assert.Equal(t, "203.0.113.9", gotMeta.IPAddress)
	assert.Equal(t, "portal-test", gotMeta.UserAgent)
}

func TestLogin_BadCredentials_Returns401(t *testing.T) {
	svc := &handlers.MockClientAuthService{
		LoginFunc: func(ctx context.Context, sess *session.Session, email, password string, meta services.RequestMeta) (*models.Client, error) {
			return nil, models.AuthError("invalid email or password")
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.Login(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "wrong",
	}))

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "invalid email or password")
}

func TestLogin_EmptyBody_ReachesService(t *testing.T) {
	svc := &handlers.MockClientAuthService{
		LoginFunc: func(ctx context.Context, sess *session.Session, email, password string, meta services.RequestMeta) (*models.Client, error) {
			return nil, models.ValidationError("email and password are required")
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "email and password are required")
}

// ── Logout / Status ──────────────────────────────────────────────────────────

func TestLogout_Returns200(t *testing.T) {
	called := false
	svc := &handlers.MockClientAuthService{
		LogoutFunc: func(ctx context.Context, sess *session.Session) { called = true },
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	var resp handlers.MessageResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "Logout successful", resp.Message)
	assert.True(t, called)
}

func TestStatus_Unauthenticated_ReturnsNulls(t *testing.T) {
	svc := &handlers.MockClientAuthService{
		StatusFunc: func(sess *session.Session) services.AuthStatus {
			return services.AuthStatus{}
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.Status(w, httptest.NewRequest(http.MethodGet, "/api/auth/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false,"id":null,"email":null}`, w.Body.String())
}

// ── Profile ──────────────────────────────────────────────────────────────────

func TestGetProfile_Returns200(t *testing.T) {
	svc := &handlers.MockClientAuthService{
		GetProfileFunc: func(ctx context.Context, sess *session.Session) (*models.Client, error) {
			return sampleClient(), nil
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))

	var resp handlers.ClientResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "Jane", resp.Client.FirstName)
}

func TestUpdateProfile_PassesOnlyProvidedFields(t *testing.T) {
	var got models.ClientProfileUpdate
	svc := &handlers.MockClientAuthService{
		UpdateProfileFunc: func(ctx context.Context, sess *session.Session, upd models.ClientProfileUpdate) (*models.Client, error) {
			got = upd
			c := sampleClient()
			c.LastName = *upd.LastName
			return c, nil
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.UpdateProfile(w, handlers.NewTestRequest(t, http.MethodPut, "/api/auth/profile", map[string]string{
		"last_name": "Smith",
		"email":     "ignored@example.com",
	}))

	var resp handlers.ClientMessageResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "Profile updated successfully", resp.Message)
	assert.Equal(t, "Smith", resp.Client.LastName)
	assert.Nil(t, got.FirstName)
	assert.Nil(t, got.Phone)
	require.NotNil(t, got.LastName)
}

// ── ChangePassword ───────────────────────────────────────────────────────────

func TestChangePassword_Success_Returns200(t *testing.T) {
	svc := &handlers.MockClientAuthService{
		ChangePasswordFunc: func(ctx context.Context, sess *session.Session, current, next string) error {
			assert.Equal(t, "old-secret", current)
			assert.Equal(t, "new-secret", next)
			return nil
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.ChangePassword(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/change-password", map[string]string{
		"current_password": "old-secret",
		"new_password":     "new-secret",
	}))

	var resp handlers.MessageResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "Password changed successfully", resp.Message)
}

func TestChangePassword_WrongCurrent_Returns400(t *testing.T) {
	svc := &handlers.MockClientAuthService{
		ChangePasswordFunc: func(ctx context.Context, sess *session.Session, current, next string) error {
			return models.ValidationError("current password is incorrect")
		},
	}
	h := newAuthHandler(svc, &handlers.MockSessionSaver{})

	w := httptest.NewRecorder()
	h.ChangePassword(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/change-password", map[string]string{
		"current_password": "nope",
		"new_password":     "new-secret",
	}))

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "current password is incorrect")
}
