package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo writes to audit_events. The table has no foreign key to
// users so history survives account deletion.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, type, user_id, ip_address, message, created_at)
VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, ''), $5, $6)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, string(e.Type), e.UserID, e.IPAddress, e.Message, e.CreatedAt)
	return err
}
