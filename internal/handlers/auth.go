package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/BradenHooton/investment-portal/internal/session"
	pkghttp "github.com/BradenHooton/investment-portal/pkg/http"
)

// ClientAuthServiceInterface defines the client auth business logic used by AuthHandler
type ClientAuthServiceInterface interface {
	Register(ctx context.Context, sess *session.Session, in services.RegisterInput, meta services.RequestMeta) (*models.Client, error)
	Login(ctx context.Context, sess *session.Session, email, password string, meta services.RequestMeta) (*models.Client, error)
	Logout(ctx context.Context, sess *session.Session)
	GetProfile(ctx context.Context, sess *session.Session) (*models.Client, error)
	UpdateProfile(ctx context.Context, sess *session.Session, upd models.ClientProfileUpdate) (*models.Client, error)
	ChangePassword(ctx context.Context, sess *session.Session, current, next string) error
	Status(sess *session.Session) services.AuthStatus
}

// AuthHandler handles client authentication and profile requests
type AuthHandler struct {
	responder
	service ClientAuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service ClientAuthServiceInterface, sessions SessionSaver, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		responder: responder{sessions: sessions, ipConfig: ipConfig, logger: logger},
		service:   service,
	}
}

// Request DTOs

// RegisterRequest represents the request body for client registration.
// Presence is checked by the service so the required-field order is stable.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"omitempty,max=120"`
	Password  string  `json:"password" validate:"omitempty,max=128"`
	FirstName string  `json:"first_name" validate:"omitempty,max=50"`
	LastName  string  `json:"last_name" validate:"omitempty,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

// LoginRequest represents the request body for client login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"omitempty,max=128"`
}

// Response DTOs

// ClientMessageResponse pairs a message with the affected client
type ClientMessageResponse struct {
	Message string                `json:"message"`
	Client  models.ClientResponse `json:"client"`
}

// ClientResponse wraps a single client record
type ClientResponse struct {
	Client models.ClientResponse `json:"client"`
}

// Register handles client registration
// @Summary Register a client account
// @Accept json
// @Param request body RegisterRequest true "Registration request"
// @Produce json
// @Success 201 {object} ClientMessageResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 409 {object} pkghttp.ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	sess := session.FromContext(r.Context())
	client, err := h.service.Register(r.Context(), sess, services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}, h.meta(r))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}

	h.respond(w, r, sess, http.StatusCreated, ClientMessageResponse{
		Message: "Registration successful",
		Client:  client.ToResponse(),
	})
}

// Login handles client login
// @Summary Client login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} ClientMessageResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	sess := session.FromContext(r.Context())
	client, err := h.service.Login(r.Context(), sess, req.Email, req.Password, h.meta(r))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}

	h.respond(w, r, sess, http.StatusOK, ClientMessageResponse{
		Message: "Login successful",
		Client:  client.ToResponse(),
	})
}

// Logout clears the client from the session. Succeeds when nobody is signed in.
// @Summary Client logout
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	h.service.Logout(r.Context(), sess)
	h.respond(w, r, sess, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// GetProfile returns the signed-in client
// @Summary Get client profile
// @Produce json
// @Success 200 {object} ClientResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /api/auth/profile [get]
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	client, err := h.service.GetProfile(r.Context(), sess)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, ClientResponse{Client: client.ToResponse()})
}

// UpdateProfile applies a partial profile update
// @Summary Update client profile
// @Accept json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Produce json
// @Success 200 {object} ClientMessageResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/auth/profile [put]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	sess := session.FromContext(r.Context())
	client, err := h.service.UpdateProfile(r.Context(), sess, models.ClientProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}

	h.respond(w, r, sess, http.StatusOK, ClientMessageResponse{
		Message: "Profile updated successfully",
		Client:  client.ToResponse(),
	})
}

// ChangePassword replaces the signed-in client's password
// @Summary Change client password
// @Accept json
// @Param request body ChangePasswordRequest true "Password change"
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	sess := session.FromContext(r.Context())
	if err := h.service.ChangePassword(r.Context(), sess, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

// Status reports whether a client is signed in
// @Summary Client auth status
// @Produce json
// @Success 200 {object} services.AuthStatus
// @Router /api/auth/status [get]
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	h.respond(w, r, sess, http.StatusOK, h.service.Status(sess))
}
