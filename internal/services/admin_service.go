package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/investment-portal/internal/auth"
	"github.com/BradenHooton/investment-portal/internal/brokerage"
	"github.com/BradenHooton/investment-portal/internal/metrics"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/session"
	pkgauth "github.com/BradenHooton/investment-portal/pkg/auth"
)

// Pagination bounds for admin listings
const (
	DefaultClientsPerPage   = 20
	DefaultAuditLogsPerPage = 50
	MaxPerPage              = 100
)

const (
	msgAdminRequired       = "admin authentication required"
	msgInvalidAdminSession = "invalid admin session"
	msgAdminBadCredentials = "invalid credentials"
)

// AdminUserRepository is the admin account persistence AdminService needs.
type AdminUserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) (*models.AdminUser, error)
}

// ClientListQuery holds raw listing parameters as received.
type ClientListQuery struct {
	Page    int
	PerPage int
	Search  string
	Status  string
}

type ClientPage struct {
	Clients     []models.ClientResponse `json:"clients"`
	Total       int64                   `json:"total"`
	Pages       int                     `json:"pages"`
	CurrentPage int                     `json:"current_page"`
	PerPage     int                     `json:"per_page"`
}

type AuditLogPage struct {
	Logs        []models.AuditLogResponse `json:"logs"`
	Total       int64                     `json:"total"`
	Pages       int                       `json:"pages"`
	CurrentPage int                       `json:"current_page"`
	PerPage     int                       `json:"per_page"`
}

// ClientDetails is a client record plus its portfolio summary.
type ClientDetails struct {
	models.ClientResponse
	PortfolioSummary *brokerage.ClientSummary `json:"portfolio_summary"`
}

type DashboardStats struct {
	TotalClients           int64   `json:"total_clients"`
	ActiveClients          int64   `json:"active_clients"`
	InactiveClients        int64   `json:"inactive_clients"`
	NewClientsThisMonth    int64   `json:"new_clients_this_month"`
	TotalAUM               float64 `json:"total_aum"`
	AveragePortfolioValue  float64 `json:"average_portfolio_value"`
	TotalTransactionsToday int64   `json:"total_transactions_today"`
}

// AdminService backs the staff console. Every operation other than Login
// starts with requireAdmin, and every viewing or mutating operation is audited
// after it succeeds.
type AdminService struct {
	admins   AdminUserRepository
	clients  ClientRepository
	audit    *AuditService
	provider brokerage.Provider
	timing   *auth.TimingDelay
	logger   *slog.Logger
	now      func() time.Time
}

func NewAdminService(
	admins AdminUserRepository,
	clients ClientRepository,
	audit *AuditService,
	provider brokerage.Provider,
	timing *auth.TimingDelay,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		admins:   admins,
		clients:  clients,
		audit:    audit,
		provider: provider,
		timing:   timing,
		logger:   logger,
		now:      time.Now,
	}
}

// requireAdmin resolves the admin bound to sess. A slot pointing at a missing
// or deactivated admin is cleared.
func (s *AdminService) requireAdmin(ctx context.Context, sess *session.Session) (*models.AdminUser, error) {
	id, ok := sess.Current(session.KindAdmin)
	if !ok {
		return nil, models.AuthError(msgAdminRequired)
	}

	admin, err := s.admins.GetByID(ctx, id.ID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil || !admin.IsActive {
		sess.Clear(session.KindAdmin)
		s.logger.Warn("cleared stale admin session", slog.Int64("admin_user_id", id.ID))
		return nil, models.AuthError(msgInvalidAdminSession)
	}

	return admin, nil
}

// Login authenticates an admin. Every failure returns the same message.
func (s *AdminService) Login(ctx context.Context, sess *session.Session, username, password string, meta RequestMeta) (*models.AdminUser, error) {
	start := time.Now()
	username = strings.TrimSpace(username)

	if username == "" || password == "" {
		return nil, models.ValidationError("username and password are required")
	}

	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up admin: %w", err)
		}
		pkgauth.DummyVerify(password)
		return nil, s.adminLoginFailed(ctx, start, username, "unknown_username")
	}

	if !pkgauth.VerifyPassword(admin.PasswordHash, password) {
		return nil, s.adminLoginFailed(ctx, start, username, "invalid_password")
	}
	if !admin.IsActive {
		return nil, s.adminLoginFailed(ctx, start, username, "inactive")
	}

	updated, err := s.admins.UpdateLastLogin(ctx, admin.ID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update admin last login: %w", err)
	}

	sess.Establish(session.KindAdmin, session.Identity{ID: updated.ID})

	metrics.LoginAttemptsTotal.WithLabelValues(metrics.SurfaceAdmin, metrics.ResultSuccess).Inc()
	s.audit.Record(ctx, AuditEntry{
		AdminUserID:  updated.ID,
		Action:       models.AuditActionLogin,
		ResourceType: models.AuditResourceAdminSession,
		Meta:         meta,
	})

	return updated, nil
}

func (s *AdminService) adminLoginFailed(ctx context.Context, start time.Time, username, reason string) error {
	metrics.LoginAttemptsTotal.WithLabelValues(metrics.SurfaceAdmin, metrics.ResultFailure).Inc()
	s.logger.WarnContext(ctx, "admin login failed",
		slog.String("username", username),
		slog.String("reason", reason),
	)
	s.timing.WaitFrom(ctx, start, false)
	return models.AuthError(msgAdminBadCredentials)
}

// Logout audits and then clears the admin slot only.
func (s *AdminService) Logout(ctx context.Context, sess *session.Session, meta RequestMeta) error {
	admin, err := s.requireAdmin(ctx, sess)
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		AdminUserID:  admin.ID,
		Action:       models.AuditActionLogout,
		ResourceType: models.AuditResourceAdminSession,
		Meta:         meta,
	})

	sess.Clear(session.KindAdmin)
	return nil
}

func (s *AdminService) Profile(ctx context.Context, sess *session.Session) (*models.AdminUser, error) {
	return s.requireAdmin(ctx, sess)
}

// ListClients returns one page of clients ordered by id.
func (s *AdminService) ListClients(ctx context.Context, sess *session.Session, q ClientListQuery, meta RequestMeta) (*ClientPage, error) {
	admin, err := s.requireAdmin(ctx, sess)
	if err != nil {
		return nil, err
	}

	filter := models.ClientFilter{Search: strings.TrimSpace(q.Search)}
	switch strings.ToLower(strings.TrimSpace(q.Status)) {
	case "":
	case "active":
		active := true
		filter.Active = &active
	case "inactive":
		active := false
		filter.Active = &active
	default:
		return nil, models.ValidationError("status must be 'active' or 'inactive'")
	}

	page := models.NewPage(q.Page, q.PerPage, DefaultClientsPerPage, MaxPerPage)

	clients, total, err := s.clients.List(ctx, filter, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		AdminUserID:  admin.ID,
		Action:       models.AuditActionViewClients,
		ResourceType: models.AuditResourceClientList,
		Details:      fmt.Sprintf("Page %d, Search: %s", page.Number, filter.Search),
		Meta:         meta,
	})

	out := make([]models.ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.ToResponse())
	}

	return &ClientPage{
		Clients:     out,
		Total:       total,
		Pages:       models.PageCount(total, page.PerPage),
		CurrentPage: page.Number,
		PerPage:     page.PerPage,
	}, nil
}

func (s *AdminService) GetClientDetails(ctx context.Context, sess *session.Session, clientID int64, meta RequestMeta) (*ClientDetails, error) {
	admin, err := s.requireAdmin(ctx, sess)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFoundError(msgClientNotFound)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	summary, err := s.provider.ClientSummary(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio summary: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		AdminUserID:  admin.ID,
		Action:       models.AuditActionViewClientDetails,
		ResourceType: models.AuditResourceClient,
		ResourceID:   strconv.FormatInt(client.ID, 10),
		Meta:         meta,
	})

	return &ClientDetails{ClientResponse: client.ToResponse(), PortfolioSummary: summary}, nil
}

// UpdateClientStatus activates or suspends a client and audits the change
// with the previous and new flag. A nil isActive means the field was absent.
func (s *AdminService) UpdateClientStatus(ctx context.Context, sess *session.Session, clientID int64, isActive *bool, meta RequestMeta) (*models.Client, error) {
	admin, err := s.requireAdmin(ctx, sess)
	if err != nil {
		return nil, err
	}

	if isActive == nil {
		return nil, models.ValidationError("is_active field required")
	}
	active := *isActive

	previous, client, err := s.clients.SetActive(ctx, clientID, active)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFoundError(msgClientNotFound)
		}
		return nil, fmt.Errorf("failed to update client status: %w", err)
	}

	action := models.AuditActionSuspendClient
	if active {
		action = models.AuditActionActivateClient
	}

	s.audit.Record(ctx, AuditEntry{
		AdminUserID:  admin.ID,
		Action:       action,
		ResourceType: models.AuditResourceClient,
		ResourceID:   strconv.FormatInt(client.ID, 10),
		Details:      fmt.Sprintf("Status changed from %t to %t", previous, active),
		Meta:         meta,
	})

	return client, nil
}

func (s *AdminService) DashboardStats(ctx context.Context, sess *session.Session, meta RequestMeta) (*DashboardStats, error) {
	admin, err := s.requireAdmin(ctx, sess)
	if err != nil {
		return nil, err
	}

	total, err := s.clients.CountTotal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	active, err := s.clients.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active clients: %w", err)
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	newThisMonth, err := s.clients.CountNewSince(ctx, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count new clients: %w", err)
	}

	agg, err := s.provider.AggregateMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate metrics: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		AdminUserID:  admin.ID,
		Action:       models.AuditActionViewDashboard,
		ResourceType: models.AuditResourceDashboardStats,
		Meta:         meta,
	})

	return &DashboardStats{
		TotalClients:           total,
		ActiveClients:          active,
		InactiveClients:        total - active,
		NewClientsThisMonth:    newThisMonth,
		TotalAUM:               agg.TotalAUM,
		AveragePortfolioValue:  agg.AveragePortfolioValue,
		TotalTransactionsToday: agg.TotalTransactionsToday,
	}, nil
}

// ListAuditLogs is not itself audited.
func (s *AdminService) ListAuditLogs(ctx context.Context, sess *session.Session, pageNumber, perPage int) (*AuditLogPage, error) {
	if _, err := s.requireAdmin(ctx, sess); err != nil {
		return nil, err
	}

	page := models.NewPage(pageNumber, perPage, DefaultAuditLogsPerPage, MaxPerPage)

	logs, total, err := s.audit.List(ctx, page)
	if err != nil {
		return nil, err
	}

	out := make([]models.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.ToResponse())
	}

	return &AuditLogPage{
		Logs:        out,
		Total:       total,
		Pages:       models.PageCount(total, page.PerPage),
		CurrentPage: page.Number,
		PerPage:     page.PerPage,
	}, nil
}
