package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/BradenHooton/investment-portal/internal/session"
	pkghttp "github.com/BradenHooton/investment-portal/pkg/http"
)

// AdminServiceInterface defines the admin console business logic used by AdminHandler
type AdminServiceInterface interface {
	Login(ctx context.Context, sess *session.Session, username, password string, meta services.RequestMeta) (*models.AdminUser, error)
	Logout(ctx context.Context, sess *session.Session, meta services.RequestMeta) error
	Profile(ctx context.Context, sess *session.Session) (*models.AdminUser, error)
	ListClients(ctx context.Context, sess *session.Session, q services.ClientListQuery, meta services.RequestMeta) (*services.ClientPage, error)
	GetClientDetails(ctx context.Context, sess *session.Session, clientID int64, meta services.RequestMeta) (*services.ClientDetails, error)
	UpdateClientStatus(ctx context.Context, sess *session.Session, clientID int64, isActive *bool, meta services.RequestMeta) (*models.Client, error)
	DashboardStats(ctx context.Context, sess *session.Session, meta services.RequestMeta) (*services.DashboardStats, error)
	ListAuditLogs(ctx context.Context, sess *session.Session, pageNumber, perPage int) (*services.AuditLogPage, error)
}

// AdminHandler handles admin console requests
type AdminHandler struct {
	responder
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface, sessions SessionSaver, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		responder: responder{sessions: sessions, ipConfig: ipConfig, logger: logger},
		service:   service,
	}
}

// AdminLoginRequest represents the request body for admin login
type AdminLoginRequest struct {
	Username string `json:"username" validate:"omitempty,max=80"`
	Password string `json:"password" validate:"omitempty,max=128"`
}

// UpdateClientStatusRequest represents the request body for a status change
type UpdateClientStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// AdminLoginResponse is returned after a successful admin login
type AdminLoginResponse struct {
	Message   string                   `json:"message"`
	AdminUser models.AdminUserResponse `json:"admin_user"`
}

// Login handles admin login
// @Summary Admin login
// @Accept json
// @Param request body AdminLoginRequest true "Admin credentials"
// @Produce json
// @Success 200 {object} AdminLoginResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/admin/login [post]
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	sess := session.FromContext(r.Context())
	admin, err := h.service.Login(r.Context(), sess, req.Username, req.Password, h.meta(r))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}

	h.respond(w, r, sess, http.StatusOK, AdminLoginResponse{
		Message:   "Login successful",
		AdminUser: admin.ToResponse(),
	})
}

// Logout handles admin logout
// @Summary Admin logout
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/admin/logout [post]
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := h.service.Logout(r.Context(), sess, h.meta(r)); err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// Me returns the signed-in admin
// @Summary Current admin
// @Produce json
// @Success 200 {object} models.AdminUserResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/admin/me [get]
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	admin, err := h.service.Profile(r.Context(), sess)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, admin.ToResponse())
}

// ListClients returns a page of clients
// @Summary List clients
// @Param page query int false "Page number"
// @Param per_page query int false "Page size (max 100)"
// @Param search query string false "Email or name substring"
// @Param status query string false "active or inactive"
// @Produce json
// @Success 200 {object} services.ClientPage
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/admin/clients [get]
func (h *AdminHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := services.ClientListQuery{
		Page:    queryInt(query.Get("page")),
		PerPage: queryInt(query.Get("per_page")),
		Search:  query.Get("search"),
		Status:  query.Get("status"),
	}

	sess := session.FromContext(r.Context())
	page, err := h.service.ListClients(r.Context(), sess, q, h.meta(r))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, page)
}

// GetClient returns one client with its portfolio summary
// @Summary Client details
// @Param id path int true "Client ID"
// @Produce json
// @Success 200 {object} services.ClientDetails
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /api/admin/clients/{id} [get]
func (h *AdminHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id, ok := clientIDParam(r)
	if !ok {
		// Unauthenticated callers get 401 before 404
		if _, err := h.service.Profile(r.Context(), sess); err != nil {
			h.fail(w, r, sess, err)
			return
		}
		h.fail(w, r, sess, models.NotFoundError("client not found"))
		return
	}

	details, err := h.service.GetClientDetails(r.Context(), sess, id, h.meta(r))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, details)
}

// UpdateClientStatus activates or suspends a client
// @Summary Update client status
// @Accept json
// @Param id path int true "Client ID"
// @Param request body UpdateClientStatusRequest true "New status"
// @Produce json
// @Success 200 {object} ClientMessageResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /api/admin/clients/{id}/status [put]
func (h *AdminHandler) UpdateClientStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateClientStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	sess := session.FromContext(r.Context())
	id, ok := clientIDParam(r)
	if !ok {
		if _, err := h.service.Profile(r.Context(), sess); err != nil {
			h.fail(w, r, sess, err)
			return
		}
		h.fail(w, r, sess, models.NotFoundError("client not found"))
		return
	}

	client, err := h.service.UpdateClientStatus(r.Context(), sess, id, req.IsActive, h.meta(r))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}

	message := "Client suspended successfully"
	if client.IsActive {
		message = "Client activated successfully"
	}
	h.respond(w, r, sess, http.StatusOK, ClientMessageResponse{
		Message: message,
		Client:  client.ToResponse(),
	})
}

// DashboardStats returns aggregate console figures
// @Summary Dashboard statistics
// @Produce json
// @Success 200 {object} services.DashboardStats
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/admin/dashboard/stats [get]
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	stats, err := h.service.DashboardStats(r.Context(), sess, h.meta(r))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, stats)
}

// ListAuditLogs returns a page of audit records, newest first
// @Summary List audit logs
// @Param page query int false "Page number"
// @Param per_page query int false "Page size (max 100)"
// @Produce json
// @Success 200 {object} services.AuditLogPage
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sess := session.FromContext(r.Context())
	page, err := h.service.ListAuditLogs(r.Context(), sess, queryInt(query.Get("page")), queryInt(query.Get("per_page")))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, page)
}

// queryInt parses an integer query value. Missing or malformed values read as
// zero, which the services treat as "use the default".
func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func clientIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
