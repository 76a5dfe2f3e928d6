package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/investment-portal/internal/brokerage"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/BradenHooton/investment-portal/internal/session"
	pkghttp "github.com/BradenHooton/investment-portal/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSession attaches sess to the request context the way session.Middleware does
func WithSession(req *http.Request, sess *session.Session) *http.Request {
	return req.WithContext(session.NewContext(req.Context(), sess))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks the status and human message of an error reply
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedMessage, resp.Error, "Error message mismatch")
	assert.NotEmpty(t, resp.Code, "Error code should not be empty")
}

// MockSessionSaver records saves and optionally fails them
type MockSessionSaver struct {
	SaveFunc func(ctx context.Context, w http.ResponseWriter, s *session.Session) error
	Saved    int
}

func (m *MockSessionSaver) Save(ctx context.Context, w http.ResponseWriter, s *session.Session) error {
	m.Saved++
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, w, s)
	}
	return nil
}

// MockClientAuthService implements ClientAuthServiceInterface for testing
type MockClientAuthService struct {
	RegisterFunc       func(ctx context.Context, sess *session.Session, in services.RegisterInput, meta services.RequestMeta) (*models.Client, error)
	LoginFunc          func(ctx context.Context, sess *session.Session, email, password string, meta services.RequestMeta) (*models.Client, error)
	LogoutFunc         func(ctx context.Context, sess *session.Session)
	GetProfileFunc     func(ctx context.Context, sess *session.Session) (*models.Client, error)
	UpdateProfileFunc  func(ctx context.Context, sess *session.Session, upd models.ClientProfileUpdate) (*models.Client, error)
	ChangePasswordFunc func(ctx context.Context, sess *session.Session, current, next string) error
	StatusFunc         func(sess *session.Session) services.AuthStatus
}

func (m *MockClientAuthService) Register(ctx context.Context, sess *session.Session, in services.RegisterInput, meta services.RequestMeta) (*models.Client, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, sess, in, meta)
	}
	return nil, nil
}

func (m *MockClientAuthService) Login(ctx context.Context, sess *session.Session, email, password string, meta services.RequestMeta) (*models.Client, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, sess, email, password, meta)
	}
	return nil, nil
}

func (m *MockClientAuthService) Logout(ctx context.Context, sess *session.Session) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx, sess)
	}
}

func (m *MockClientAuthService) GetProfile(ctx context.Context, sess *session.Session) (*models.Client, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, sess)
	}
	return nil, nil
}

func (m *MockClientAuthService) UpdateProfile(ctx context.Context, sess *session.Session, upd models.ClientProfileUpdate) (*models.Client, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, sess, upd)
	}
	return nil, nil
}

func (m *MockClientAuthService) ChangePassword(ctx context.Context, sess *session.Session, current, next string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, sess, current, next)
	}
	return nil
}

func (m *MockClientAuthService) Status(sess *session.Session) services.AuthStatus {
	if m.StatusFunc != nil {
		return m.StatusFunc(sess)
	}
	return services.AuthStatus{}
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	LoginFunc              func(ctx context.Context, sess *session.Session, username, password string, meta services.RequestMeta) (*models.AdminUser, error)
	LogoutFunc             func(ctx context.Context, sess *session.Session, meta services.RequestMeta) error
	ProfileFunc            func(ctx context.Context, sess *session.Session) (*models.AdminUser, error)
	ListClientsFunc        func(ctx context.Context, sess *session.Session, q services.ClientListQuery, meta services.RequestMeta) (*services.ClientPage, error)
	GetClientDetailsFunc   func(ctx context.Context, sess *session.Session, clientID int64, meta services.RequestMeta) (*services.ClientDetails, error)
	UpdateClientStatusFunc func(ctx context.Context, sess *session.Session, clientID int64, isActive *bool, meta services.RequestMeta) (*models.Client, error)
	DashboardStatsFunc     func(ctx context.Context, sess *session.Session, meta services.RequestMeta) (*services.DashboardStats, error)
	ListAuditLogsFunc      func(ctx context.Context, sess *session.Session, pageNumber, perPage int) (*services.AuditLogPage, error)
}

func (m *MockAdminService) Login(ctx context.Context, sess *session.Session, username, password string, meta services.RequestMeta) (*models.AdminUser, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, sess, username, password, meta)
	}
	return nil, nil
}

func (m *MockAdminService) Logout(ctx context.Context, sess *session.Session, meta services.RequestMeta) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sess, meta)
	}
	return nil
}

func (m *MockAdminService) Profile(ctx context.Context, sess *session.Session) (*models.AdminUser, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, sess)
	}
	return nil, nil
}

func (m *MockAdminService) ListClients(ctx context.Context, sess *session.Session, q services.ClientListQuery, meta services.RequestMeta) (*services.ClientPage, error) {
	if m.ListClientsFunc != nil {
		return m.ListClientsFunc(ctx, sess, q, meta)
	}
	return &services.ClientPage{Clients: []models.ClientResponse{}}, nil
}

func (m *MockAdminService) GetClientDetails(ctx context.Context, sess *session.Session, clientID int64, meta services.RequestMeta) (*services.ClientDetails, error) {
	if m.GetClientDetailsFunc != nil {
		return m.GetClientDetailsFunc(ctx, sess, clientID, meta)
	}
	return nil, nil
}

func (m *MockAdminService) UpdateClientStatus(ctx context.Context, sess *session.Session, clientID int64, isActive *bool, meta services.RequestMeta) (*models.Client, error) {
	if m.UpdateClientStatusFunc != nil {
		return m.UpdateClientStatusFunc(ctx, sess, clientID, isActive, meta)
	}
	return nil, nil
}

func (m *MockAdminService) DashboardStats(ctx context.Context, sess *session.Session, meta services.RequestMeta) (*services.DashboardStats, error) {
	if m.DashboardStatsFunc != nil {
		return m.DashboardStatsFunc(ctx, sess, meta)
	}
	return &services.DashboardStats{}, nil
}

func (m *MockAdminService) ListAuditLogs(ctx context.Context, sess *session.Session, pageNumber, perPage int) (*services.AuditLogPage, error) {
	if m.ListAuditLogsFunc != nil {
		return m.ListAuditLogsFunc(ctx, sess, pageNumber, perPage)
	}
	return &services.AuditLogPage{Logs: []models.AuditLogResponse{}}, nil
}

// MockBrokerageService implements BrokerageServiceInterface for testing
type MockBrokerageService struct {
	CreateLinkTokenFunc     func(ctx context.Context, sess *session.Session) (*brokerage.LinkToken, error)
	ExchangePublicTokenFunc func(ctx context.Context, sess *session.Session, publicToken string) (*brokerage.Exchange, error)
	StatusFunc              func(sess *session.Session) services.ConnectionStatus
	PortfolioSummaryFunc    func(ctx context.Context, sess *session.Session) (*brokerage.PortfolioSummary, error)
	HoldingsFunc            func(ctx context.Context, sess *session.Session) (*brokerage.Holdings, error)
	TransactionsFunc        func(ctx context.Context, sess *session.Session, startDate, endDate string) (*services.TransactionsResult, error)
	DisconnectFunc          func(ctx context.Context, sess *session.Session) error
}

func (m *MockBrokerageService) CreateLinkToken(ctx context.Context, sess *session.Session) (*brokerage.LinkToken, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, sess)
	}
	return &brokerage.LinkToken{}, nil
}

func (m *MockBrokerageService) ExchangePublicToken(ctx context.Context, sess *session.Session, publicToken string) (*brokerage.Exchange, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, sess, publicToken)
	}
	return &brokerage.Exchange{}, nil
}

func (m *MockBrokerageService) Status(sess *session.Session) services.ConnectionStatus {
	if m.StatusFunc != nil {
		return m.StatusFunc(sess)
	}
	return services.ConnectionStatus{}
}

func (m *MockBrokerageService) PortfolioSummary(ctx context.Context, sess *session.Session) (*brokerage.PortfolioSummary, error) {
	if m.PortfolioSummaryFunc != nil {
		return m.PortfolioSummaryFunc(ctx, sess)
	}
	return &brokerage.PortfolioSummary{}, nil
}

func (m *MockBrokerageService) Holdings(ctx context.Context, sess *session.Session) (*brokerage.Holdings, error) {
	if m.HoldingsFunc != nil {
		return m.HoldingsFunc(ctx, sess)
	}
	return &brokerage.Holdings{}, nil
}

func (m *MockBrokerageService) Transactions(ctx context.Context, sess *session.Session, startDate, endDate string) (*services.TransactionsResult, error) {
	if m.TransactionsFunc != nil {
		return m.TransactionsFunc(ctx, sess, startDate, endDate)
	}
	return &services.TransactionsResult{Transactions: &brokerage.Transactions{}}, nil
}

func (m *MockBrokerageService) Disconnect(ctx context.Context, sess *session.Session) error {
	if m.DisconnectFunc != nil {
		return m.DisconnectFunc(ctx, sess)
	}
	return nil
}
