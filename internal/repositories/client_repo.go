package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/investment-portal/internal/database"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, email, password_hash, first_name, last_name, phone,
	brokerage_access_token, brokerage_item_id, brokerage_connected_at,
	is_active, created_at, last_login`

type ClientRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewClientRepository(db *database.DB) *ClientRepository {
	return &ClientRepository{db: db, pool: db.Pool}
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClientRow(scanner rowScanner) (*models.Client, error) {
	var c models.Client

	err := scanner.Scan(
		&c.ID, &c.Email, &c.PasswordHash, &c.FirstName, &c.LastName, &c.Phone,
		&c.BrokerageAccessToken, &c.BrokerageItemID, &c.BrokerageConnectedAt,
		&c.IsActive, &c.CreatedAt, &c.LastLogin,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &c, nil
}

func scanClientRows(rows pgx.Rows) ([]*models.Client, error) {
	defer rows.Close()

	clients := make([]*models.Client, 0)

	for rows.Next() {
		c, err := scanClientRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return clients, nil
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	query := `
		INSERT INTO clients (email, password_hash, first_name, last_name, phone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + clientColumns

	return scanClientRow(r.pool.QueryRow(ctx, query,
		c.Email, c.PasswordHash, c.FirstName, c.LastName, c.Phone, c.IsActive,
	))
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return scanClientRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE email = $1`
	return scanClientRow(r.pool.QueryRow(ctx, query, email))
}

// UpdateProfile applies the non-nil fields of upd. An empty phone clears it.
func (r *ClientRepository) UpdateProfile(ctx context.Context, id int64, upd models.ClientProfileUpdate) (*models.Client, error) {
	query := `
		UPDATE clients SET
			first_name = COALESCE($1, first_name),
			last_name  = COALESCE($2, last_name),
			phone      = CASE WHEN $3::text IS NULL THEN phone ELSE NULLIF($3::text, '') END
		WHERE id = $4
		RETURNING ` + clientColumns

	return scanClientRow(r.pool.QueryRow(ctx, query, upd.FirstName, upd.LastName, upd.Phone, id))
}

func (r *ClientRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `UPDATE clients SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) (*models.Client, error) {
	query := `UPDATE clients SET last_login = $1 WHERE id = $2 RETURNING ` + clientColumns
	return scanClientRow(r.pool.QueryRow(ctx, query, at, id))
}

// SetActive sets the active flag and returns the flag it replaced. The read and
// write happen under a row lock in one transaction.
func (r *ClientRepository) SetActive(ctx context.Context, id int64, active bool) (bool, *models.Client, error) {
	var previous bool
	var updated *models.Client

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`SELECT is_active FROM clients WHERE id = $1 FOR UPDATE`, id,
		).Scan(&previous); err != nil {
			return database.MapPostgresError(err)
		}

		c, err := scanClientRow(tx.QueryRow(ctx,
			`UPDATE clients SET is_active = $1 WHERE id = $2 RETURNING `+clientColumns, active, id,
		))
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return false, nil, err
	}

	return previous, updated, nil
}

func (r *ClientRepository) SetBrokerageLink(ctx context.Context, id int64, accessToken, itemID string, at time.Time) (*models.Client, error) {
	query := `
		UPDATE clients SET brokerage_access_token = $1, brokerage_item_id = $2, brokerage_connected_at = $3
		WHERE id = $4
		RETURNING ` + clientColumns
	return scanClientRow(r.pool.QueryRow(ctx, query, accessToken, itemID, at, id))
}

func (r *ClientRepository) ClearBrokerageLink(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE clients SET brokerage_access_token = NULL, brokerage_item_id = NULL, brokerage_connected_at = NULL
		WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// List returns one page of clients ordered by id plus the total number of
// clients matching filter.
func (r *ClientRepository) List(ctx context.Context, filter models.ClientFilter, limit, offset int) ([]*models.Client, int64, error) {
	where, args := clientFilterClause(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM clients%s ORDER BY id ASC LIMIT $%d OFFSET $%d`,
		clientColumns, where, n+1, n+2)

	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query clients: %w", err)
	}

	clients, err := scanClientRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

func (r *ClientRepository) CountTotal(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count clients: %w", err)
	}
	return n, nil
}

func (r *ClientRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE is_active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count active clients: %w", err)
	}
	return n, nil
}

func (r *ClientRepository) CountNewSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE created_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count new clients: %w", err)
	}
	return n, nil
}

func clientFilterClause(filter models.ClientFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.Search != "" {
		args = append(args, EscapeLike(filter.Search))
		p := len(args)
		conds = append(conds, fmt.Sprintf(
			`(first_name ILIKE '%%' || $%d || '%%' OR last_name ILIKE '%%' || $%d || '%%' OR email ILIKE '%%' || $%d || '%%')`,
			p, p, p))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf(`is_active = $%d`, len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// EscapeLike escapes LIKE metacharacters so s matches literally under the
// default backslash escape.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
