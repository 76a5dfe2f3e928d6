package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/BradenHooton/investment-portal/internal/session"
	pkghttp "github.com/BradenHooton/investment-portal/pkg/http"
)

// SessionSaver persists a request session and writes its cookie.
type SessionSaver interface {
	Save(ctx context.Context, w http.ResponseWriter, s *session.Session) error
}

// responder writes replies for handlers that may have changed the session.
// The session is saved before any body is written so the cookie header goes
// out with the response.
type responder struct {
	sessions SessionSaver
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

func (rs *responder) respond(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, body interface{}) {
	if err := rs.sessions.Save(r.Context(), w, sess); err != nil {
		rs.logger.ErrorContext(r.Context(), "failed to save session", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "internal server error")
		return
	}
	pkghttp.WriteJSON(w, status, body)
}

// fail saves any session change the failed operation made, such as clearing a
// stale admin slot, and writes the mapped error.
func (rs *responder) fail(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if saveErr := rs.sessions.Save(r.Context(), w, sess); saveErr != nil {
		rs.logger.ErrorContext(r.Context(), "failed to save session", slog.Any("error", saveErr))
	}
	writeServiceError(w, r, rs.logger, err)
}

func (rs *responder) meta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: pkghttp.ExtractClientIP(r, rs.ipConfig),
		UserAgent: pkghttp.UserAgent(r, models.AuditUserAgentMaxLen),
	}
}

// writeServiceError maps a service error onto an HTTP status. Anything that is
// not a known kind is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	msg := models.PublicMessage(err)

	switch {
	case errors.Is(err, models.ErrValidation):
		pkghttp.WriteError(w, http.StatusBadRequest, "validation_error", msg)
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, msg)
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, msg)
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, msg)
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		pkghttp.WriteInternalError(w, "internal server error")
	}
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
