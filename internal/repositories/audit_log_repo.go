package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/investment-portal/internal/database"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogRepository handles audit log data access. Rows are append-only.
type AuditLogRepository struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{pool: db.Pool}
}

func scanAuditLogRow(row rowScanner) (*models.AuditLog, error) {
	var log models.AuditLog

	err := row.Scan(
		&log.ID, &log.AdminUserID, &log.AdminUsername, &log.Action, &log.ResourceType,
		&log.ResourceID, &log.Details, &log.IPAddress, &log.UserAgent, &log.Timestamp,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &log, nil
}

func scanAuditLogRows(rows pgx.Rows) ([]*models.AuditLog, error) {
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)

	for rows.Next() {
		log, err := scanAuditLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return logs, nil
}

// Create inserts an audit log entry and returns it with its id and timestamp.
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	query := `
		WITH inserted AS (
			INSERT INTO audit_logs (admin_user_id, action, resource_type, resource_id, details, ip_address, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, admin_user_id, action, resource_type, resource_id, details, ip_address, user_agent, timestamp
		)
		SELECT i.id, i.admin_user_id, a.username, i.action, i.resource_type, i.resource_id,
		       i.details, i.ip_address, i.user_agent, i.timestamp
		FROM inserted i
		LEFT JOIN admin_users a ON a.id = i.admin_user_id
	`

	result, err := scanAuditLogRow(r.pool.QueryRow(ctx, query,
		log.AdminUserID, log.Action, log.ResourceType, log.ResourceID,
		log.Details, log.IPAddress, log.UserAgent,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	return result, nil
}

// List returns audit logs newest first together with the total row count.
func (r *AuditLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := `
		SELECT l.id, l.admin_user_id, a.username, l.action, l.resource_type, l.resource_id,
		       l.details, l.ip_address, l.user_agent, l.timestamp
		FROM audit_logs l
		LEFT JOIN admin_users a ON a.id = l.admin_user_id
		ORDER BY l.timestamp DESC, l.id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit logs: %w", err)
	}

	logs, err := scanAuditLogRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// CountByResource counts entries for one resource, e.g. a single client.
func (r *AuditLogRepository) CountByResource(ctx context.Context, resourceType, resourceID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE resource_type = $1 AND resource_id = $2`,
		resourceType, resourceID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return n, nil
}
