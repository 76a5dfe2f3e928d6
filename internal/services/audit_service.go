package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/investment-portal/internal/metrics"
	"github.com/BradenHooton/investment-portal/internal/models"
)

// AuditLogRepository is the persistence the audit trail needs.
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, int64, error)
}

// RequestMeta identifies the caller of an operation for the audit trail.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuditEntry describes one administrative action.
type AuditEntry struct {
	AdminUserID  int64
	Action       string
	ResourceType string
	ResourceID   string
	Details      string
	Meta         RequestMeta
}

// AuditService handles audit logging with dual-write pattern (slog + database)
type AuditService struct {
	repo   AuditLogRepository
	logger *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

// Record writes entry to the operational log and the audit table. Persistence
// failures are logged and counted but never returned.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	log := &models.AuditLog{
		AdminUserID:  entry.AdminUserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   optionalString(entry.ResourceID),
		Details:      optionalString(entry.Details),
		IPAddress:    optionalString(truncateRunes(entry.Meta.IPAddress, models.AuditIPAddressMaxLen)),
		UserAgent:    optionalString(truncateRunes(entry.Meta.UserAgent, models.AuditUserAgentMaxLen)),
	}

	// Dual-write: immediate slog output
	s.logger.InfoContext(ctx, "admin audit event",
		slog.Int64("admin_user_id", entry.AdminUserID),
		slog.String("action", entry.Action),
		slog.String("resource_type", entry.ResourceType),
		slog.String("resource_id", entry.ResourceID),
		slog.String("details", entry.Details),
	)

	if _, err := s.repo.Create(ctx, log); err != nil {
		metrics.AuditWriteFailuresTotal.Inc()
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("action", entry.Action),
			slog.Any("error", err),
		)
	}
}

// List returns one page of audit logs, newest first.
func (s *AuditService) List(ctx context.Context, page models.Page) ([]*models.AuditLog, int64, error) {
	logs, total, err := s.repo.List(ctx, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
