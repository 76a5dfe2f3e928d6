package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/investment-portal/internal/database"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

const adminUserColumns = `id, username, email, password_hash, first_name, last_name, role, is_active, created_at, last_login`

type AdminUserRepository struct {
	pool *pgxpool.Pool
}

func NewAdminUserRepository(db *database.DB) *AdminUserRepository {
	return &AdminUserRepository{pool: db.Pool}
}

func scanAdminUserRow(scanner rowScanner) (*models.AdminUser, error) {
	var a models.AdminUser

	err := scanner.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.Role, &a.IsActive, &a.CreatedAt, &a.LastLogin,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &a, nil
}

func (r *AdminUserRepository) Create(ctx context.Context, a *models.AdminUser) (*models.AdminUser, error) {
	if a.Role == "" {
		a.Role = models.AdminRoleAdmin
	}

	query := `
		INSERT INTO admin_users (username, email, password_hash, first_name, last_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + adminUserColumns

	return scanAdminUserRow(r.pool.QueryRow(ctx, query,
		a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Role, a.IsActive,
	))
}

func (r *AdminUserRepository) GetByID(ctx context.Context, id int64) (*models.AdminUser, error) {
	query := `SELECT ` + adminUserColumns + ` FROM admin_users WHERE id = $1`
	return scanAdminUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *AdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	query := `SELECT ` + adminUserColumns + ` FROM admin_users WHERE username = $1`
	return scanAdminUserRow(r.pool.QueryRow(ctx, query, username))
}

func (r *AdminUserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) (*models.AdminUser, error) {
	query := `UPDATE admin_users SET last_login = $1 WHERE id = $2 RETURNING ` + adminUserColumns
	return scanAdminUserRow(r.pool.QueryRow(ctx, query, at, id))
}
