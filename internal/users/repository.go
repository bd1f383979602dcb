package users

import (
	"context"
	"database/sql"
	"errors"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/pkg/utils"
)

// PostgresRepo assumes the users table from internal/migrations; deleting a
// user cascades to sessions, calls, pathways and knowledge_bases.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const userColumns = `id, name, email, password_hash, company, provider_api_key, webhook_url, webhook_enabled, created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, u User) error {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	_, err := r.db.ExecContext(ctx, q,
		u.ID,
		u.Name,
		NormalizeEmail(u.Email),
		u.PasswordHash,
		u.Company,
		u.ProviderAPIKey,
		u.WebhookURL,
		u.WebhookEnabled,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if utils.IsUniqueViolation(err) {
		return apperr.New(apperr.ErrConflict, "email already registered")
	}
	return err
}

func (r *PostgresRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, NormalizeEmail(email)))
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) UpdateProfile(ctx context.Context, u User) error {
	const q = `
UPDATE users
SET name = $2, company = $3, provider_api_key = $4, webhook_url = $5, webhook_enabled = $6, updated_at = $7
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, u.ID, u.Name, u.Company, u.ProviderAPIKey, u.WebhookURL, u.WebhookEnabled, u.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Company,
		&u.ProviderAPIKey,
		&u.WebhookURL,
		&u.WebhookEnabled,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperr.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
