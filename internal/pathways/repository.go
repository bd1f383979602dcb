package pathways

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/pkg/utils"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const pathwayColumns = `id, user_id, name, description, nodes, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPathway(row rowScanner) (Pathway, error) {
	var (
		p     Pathway
		nodes []byte
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &nodes, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Pathway{}, apperr.ErrNotFound
		}
		return Pathway{}, err
	}
	p.Nodes = json.RawMessage(nodes)
	return p, nil
}

func (r *PostgresRepo) List(ctx context.Context, userID string, status Status) ([]Pathway, error) {
	const q = `
SELECT ` + pathwayColumns + `
FROM pathways
WHERE user_id = $1 AND ($2 = '' OR status = $2)
ORDER BY updated_at DESC, id DESC
`
	rows, err := r.db.QueryContext(ctx, q, userID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Pathway, 0)
	for rows.Next() {
		p, err := scanPathway(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, userID, id string) (Pathway, error) {
	if !utils.IsUUID(id) {
		return Pathway{}, apperr.ErrNotFound
	}
	const q = `SELECT ` + pathwayColumns + ` FROM pathways WHERE user_id = $1 AND id = $2`
	return scanPathway(r.db.QueryRowContext(ctx, q, userID, id))
}

func (r *PostgresRepo) Create(ctx context.Context, p Pathway) error {
	const q = `
INSERT INTO pathways (` + pathwayColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.UserID, p.Name, p.Description, []byte(nodesOrEmpty(p.Nodes)), string(p.Status), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, p Pathway) error {
	if !utils.IsUUID(p.ID) {
		return apperr.ErrNotFound
	}
	const q = `
UPDATE pathways
SET name = $3, description = $4, nodes = $5, status = $6, updated_at = $7
WHERE user_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q, p.UserID, p.ID, p.Name, p.Description, []byte(nodesOrEmpty(p.Nodes)), string(p.Status), p.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PostgresRepo) Delete(ctx context.Context, userID, id string) error {
	if !utils.IsUUID(id) {
		return apperr.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM pathways WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
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
