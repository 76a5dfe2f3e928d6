package session

import (
	"context"
	"log/slog"
	"net/http"

	httputil "github.com/BradenHooton/investment-portal/pkg/http"
)

type contextKey string

const sessionKey contextKey = "session"

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the request session. Requests that did not pass through
// Middleware get a detached empty session.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey).(*Session); ok && s != nil {
		return s
	}
	return New()
}

// Middleware loads the request session into the context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Load(r)
		if err != nil {
			m.logger.Error("session store unavailable", slog.Any("error", err))
			httputil.WriteServiceUnavailable(w, "session store unavailable")
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}
