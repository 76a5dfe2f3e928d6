package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/investment-portal/internal/auth"
)

// Manager moves sessions between the signed cookie and the Store.
type Manager struct {
	store  Store
	signer *auth.SessionTokenSigner
	cookie auth.CookieConfig
	ttl    time.Duration
	logger *slog.Logger
}

func NewManager(store Store, signer *auth.SessionTokenSigner, cookie auth.CookieConfig, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		signer: signer,
		cookie: cookie,
		ttl:    ttl,
		logger: logger,
	}
}

// Load returns the session named by the request cookie. A missing, tampered,
// expired or unknown cookie yields a fresh empty session. Only store failures
// are returned as errors.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	value, err := auth.GetSessionCookie(r, m.cookie)
	if err != nil || value == "" {
		return New(), nil
	}

	id, err := m.signer.Parse(value)
	if err != nil {
		m.logger.Debug("discarding invalid session cookie", slog.Any("error", err))
		return New(), nil
	}

	raw, err := m.store.Load(r.Context(), id)
	if errors.Is(err, ErrSessionNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		m.logger.Warn("discarding corrupt session data", slog.Any("error", err))
		return New(), nil
	}

	return restore(id, data), nil
}

// Save persists a changed session and writes its cookie. An emptied session is
// destroyed and its cookie cleared. Unchanged sessions are left alone, so both
// the store entry and the signed cookie expire one TTL after the last change.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	if s.previousID != "" {
		if err := m.store.Delete(ctx, s.previousID); err != nil {
			return fmt.Errorf("failed to delete rotated session: %w", err)
		}
		s.previousID = ""
	}

	if s.data.empty() {
		if s.persisted {
			if err := m.store.Delete(ctx, s.id); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
		}
		auth.ClearSessionCookie(w, m.cookie)
		s.persisted = false
		s.dirty = false
		return nil
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := m.store.Save(ctx, s.id, raw, m.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	token, err := m.signer.Sign(s.id, m.ttl)
	if err != nil {
		return err
	}
	auth.SetSessionCookie(w, token, m.ttl, m.cookie)

	s.persisted = true
	s.dirty = false
	return nil
}

// Ping checks the backing store.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}
