package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/investment-portal/internal/auth"
	"github.com/BradenHooton/investment-portal/internal/metrics"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/session"
	pkgauth "github.com/BradenHooton/investment-portal/pkg/auth"
	pkglogger "github.com/BradenHooton/investment-portal/pkg/logger"
)

const (
	msgInvalidCredentials = "invalid email or password"
	msgAccountDeactivated = "account is deactivated"
	msgNotAuthenticated   = "not authenticated"
	msgClientNotFound     = "client not found"
)

// ClientRepository defines the client persistence operations services depend on
type ClientRepository interface {
	Create(ctx context.Context, c *models.Client) (*models.Client, error)
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	GetByEmail(ctx context.Context, email string) (*models.Client, error)
	UpdateProfile(ctx context.Context, id int64, upd models.ClientProfileUpdate) (*models.Client, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) (*models.Client, error)
	SetActive(ctx context.Context, id int64, active bool) (bool, *models.Client, error)
	SetBrokerageLink(ctx context.Context, id int64, accessToken, itemID string, at time.Time) (*models.Client, error)
	ClearBrokerageLink(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.ClientFilter, limit, offset int) ([]*models.Client, int64, error)
	CountTotal(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountNewSince(ctx context.Context, since time.Time) (int64, error)
}

// RegisterInput carries a new client's details.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
}

// AuthStatus reports the client slot of a session.
type AuthStatus struct {
	Authenticated bool    `json:"authenticated"`
	ID            *int64  `json:"id"`
	Email         *string `json:"email"`
}

// ClientAuthService handles client registration, login and self-service
// profile management.
type ClientAuthService struct {
	repo   ClientRepository
	timing *auth.TimingDelay
	events *pkglogger.AuthEventLogger
	logger *slog.Logger
	now    func() time.Time
}

func NewClientAuthService(repo ClientRepository, timing *auth.TimingDelay, events *pkglogger.AuthEventLogger, logger *slog.Logger) *ClientAuthService {
	return &ClientAuthService{
		repo:   repo,
		timing: timing,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a client and signs them in.
func (s *ClientAuthService) Register(ctx context.Context, sess *session.Session, in RegisterInput, meta RequestMeta) (*models.Client, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	required := []struct{ field, value string }{
		{"email", in.Email},
		{"password", in.Password},
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, models.ValidationError(r.field + " is required")
		}
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, models.ConflictError("email already registered")
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing client: %w", err)
	}

	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, models.ValidationError(err.Error())
	}

	hash, err := pkgauth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	phone := in.Phone
	if phone != nil && strings.TrimSpace(*phone) == "" {
		phone = nil
	}

	client, err := s.repo.Create(ctx, &models.Client{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        phone,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ConflictError("email already registered")
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	// The row is committed before the handler saves the session. A session
	// store failure then leaves a registered client who must log in again.
	sess.Establish(session.KindClient, session.Identity{ID: client.ID, Email: client.Email})

	s.logger.Info("client registered", slog.Int64("client_id", client.ID))
	s.events.Log(ctx, pkglogger.AuthEvent{
		EventType: "register",
		ClientID:  client.ID,
		Email:     client.Email,
		IPAddress: meta.IPAddress,
		Success:   true,
	})

	return client, nil
}

// Login verifies credentials and binds the client to the session. Unknown
// emails and wrong passwords fail identically.
func (s *ClientAuthService) Login(ctx context.Context, sess *session.Session, email, password string, meta RequestMeta) (*models.Client, error) {
	start := time.Now()
	email = normalizeEmail(email)

	if email == "" || password == "" {
		return nil, models.ValidationError("email and password are required")
	}

	client, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up client: %w", err)
		}
		pkgauth.DummyVerify(password)
		s.loginFailed(ctx, start, 0, email, "invalid_credentials", meta)
		return nil, models.AuthError(msgInvalidCredentials)
	}

	if !pkgauth.VerifyPassword(client.PasswordHash, password) {
		s.loginFailed(ctx, start, client.ID, email, "invalid_credentials", meta)
		return nil, models.AuthError(msgInvalidCredentials)
	}

	if !client.IsActive {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.SurfaceClient, metrics.ResultDeactivated).Inc()
		s.events.Log(ctx, pkglogger.AuthEvent{
			EventType:     "login_failed",
			ClientID:      client.ID,
			Email:         email,
			IPAddress:     meta.IPAddress,
			FailureReason: "account_deactivated",
		})
		s.timing.WaitFrom(ctx, start, false)
		return nil, models.AuthError(msgAccountDeactivated)
	}

	updated, err := s.repo.UpdateLastLogin(ctx, client.ID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	// last_login is already committed; binding only takes effect once the
	// handler saves the session.
	sess.Establish(session.KindClient, session.Identity{ID: updated.ID, Email: updated.Email})

	metrics.LoginAttemptsTotal.WithLabelValues(metrics.SurfaceClient, metrics.ResultSuccess).Inc()
	s.events.Log(ctx, pkglogger.AuthEvent{
		EventType: "login",
		ClientID:  updated.ID,
		Email:     email,
		IPAddress: meta.IPAddress,
		Success:   true,
	})
	s.timing.WaitFrom(ctx, start, true)

	return updated, nil
}

func (s *ClientAuthService) loginFailed(ctx context.Context, start time.Time, clientID int64, email, reason string, meta RequestMeta) {
	metrics.LoginAttemptsTotal.WithLabelValues(metrics.SurfaceClient, metrics.ResultFailure).Inc()
	s.events.Log(ctx, pkglogger.AuthEvent{
		EventType:     "login_failed",
		ClientID:      clientID,
		Email:         email,
		IPAddress:     meta.IPAddress,
		FailureReason: reason,
	})
	s.timing.WaitFrom(ctx, start, false)
}

// Logout clears the client slot. An admin signed in on the same session
// stays signed in.
func (s *ClientAuthService) Logout(ctx context.Context, sess *session.Session) {
	if id, ok := sess.Current(session.KindClient); ok {
		s.events.Log(ctx, pkglogger.AuthEvent{
			EventType: "logout",
			ClientID:  id.ID,
			Email:     id.Email,
			Success:   true,
		})
	}
	sess.Clear(session.KindClient)
}

func (s *ClientAuthService) currentClient(ctx context.Context, sess *session.Session) (*models.Client, error) {
	id, ok := sess.Current(session.KindClient)
	if !ok {
		return nil, models.AuthError(msgNotAuthenticated)
	}

	client, err := s.repo.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFoundError(msgClientNotFound)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (s *ClientAuthService) GetProfile(ctx context.Context, sess *session.Session) (*models.Client, error) {
	return s.currentClient(ctx, sess)
}

// UpdateProfile applies a partial update of name and phone.
func (s *ClientAuthService) UpdateProfile(ctx context.Context, sess *session.Session, upd models.ClientProfileUpdate) (*models.Client, error) {
	client, err := s.currentClient(ctx, sess)
	if err != nil {
		return nil, err
	}

	if upd.Empty() {
		return client, nil
	}

	updated, err := s.repo.UpdateProfile(ctx, client.ID, upd)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFoundError(msgClientNotFound)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("client profile updated", slog.Int64("client_id", updated.ID))
	return updated, nil
}

// ChangePassword replaces the password hash after checking the current one.
func (s *ClientAuthService) ChangePassword(ctx context.Context, sess *session.Session, current, next string) error {
	client, err := s.currentClient(ctx, sess)
	if err != nil {
		return err
	}

	if current == "" || next == "" {
		return models.ValidationError("current password and new password are required")
	}

	if !pkgauth.VerifyPassword(client.PasswordHash, current) {
		return models.ValidationError("current password is incorrect")
	}

	if err := pkgauth.ValidatePassword(next); err != nil {
		return models.ValidationError("new " + err.Error())
	}

	hash, err := pkgauth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, client.ID, hash); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NotFoundError(msgClientNotFound)
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("client password changed", slog.Int64("client_id", client.ID))
	return nil
}

// Status never fails; an anonymous session reports authenticated=false.
func (s *ClientAuthService) Status(sess *session.Session) AuthStatus {
	id, ok := sess.Current(session.KindClient)
	if !ok {
		return AuthStatus{}
	}
	return AuthStatus{Authenticated: true, ID: &id.ID, Email: &id.Email}
}
