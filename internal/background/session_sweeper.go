package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/investment-portal/internal/metrics"
)

// ExpiredSessionDeleter removes sessions whose lifetime has passed.
// session.MemoryStore satisfies it; Redis expires keys by itself.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionSweeper periodically purges expired sessions from an in-process store
type SessionSweeper struct {
	store    ExpiredSessionDeleter
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSessionSweeper creates a new session sweeper
func NewSessionSweeper(store ExpiredSessionDeleter, logger *slog.Logger, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled
func (s *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopCh:
			s.logger.Info("session sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("session sweeper context cancelled")
			return
		}
	}
}

// Sweep runs a single purge pass and returns the number of sessions removed
func (s *SessionSweeper) Sweep(ctx context.Context) int64 {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := s.store.DeleteExpired(sweepCtx)
	if err != nil {
		s.logger.Error("failed to sweep expired sessions", slog.Any("error", err))
		return 0
	}

	if removed > 0 {
		metrics.SessionsSweptTotal.Add(float64(removed))
		s.logger.Debug("expired sessions swept", slog.Int64("removed", removed))
	}
	return removed
}

// Stop signals the sweeper to stop. Safe to call more than once.
func (s *SessionSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
