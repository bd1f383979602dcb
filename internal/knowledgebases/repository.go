package knowledgebases

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

const kbColumns = `id, user_id, name, description, type, content, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKnowledgeBase(row rowScanner) (KnowledgeBase, error) {
	var (
		kb      KnowledgeBase
		content []byte
	)
	if err := row.Scan(&kb.ID, &kb.UserID, &kb.Name, &kb.Description, &kb.Type, &content, &kb.Status, &kb.CreatedAt, &kb.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return KnowledgeBase{}, apperr.ErrNotFound
		}
		return KnowledgeBase{}, err
	}
	kb.Content = json.RawMessage(content)
	return kb, nil
}

func (r *PostgresRepo) List(ctx context.Context, userID string, status Status) ([]KnowledgeBase, error) {
	const q = `
SELECT ` + kbColumns + `
FROM knowledge_bases
WHERE user_id = $1 AND ($2 = '' OR status = $2)
ORDER BY updated_at DESC, id DESC
`
	rows, err := r.db.QueryContext(ctx, q, userID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]KnowledgeBase, 0)
	for rows.Next() {
		kb, err := scanKnowledgeBase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, kb)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, userID, id string) (KnowledgeBase, error) {
	if !utils.IsUUID(id) {
		return KnowledgeBase{}, apperr.ErrNotFound
	}
	const q = `SELECT ` + kbColumns + ` FROM knowledge_bases WHERE user_id = $1 AND id = $2`
	return scanKnowledgeBase(r.db.QueryRowContext(ctx, q, userID, id))
}

func (r *PostgresRepo) Create(ctx context.Context, kb KnowledgeBase) error {
	const q = `
INSERT INTO knowledge_bases (` + kbColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := r.db.ExecContext(ctx, q,
		kb.ID,
		kb.UserID,
		kb.Name,
		kb.Description,
		string(kb.Type),
		[]byte(contentOrEmpty(kb.Content)),
		string(kb.Status),
		kb.CreatedAt,
		kb.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, kb KnowledgeBase) error {
	if !utils.IsUUID(kb.ID) {
		return apperr.ErrNotFound
	}
	const q = `
UPDATE knowledge_bases
SET name = $3, description = $4, type = $5, content = $6, status = $7, updated_at = $8
WHERE user_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q, kb.UserID, kb.ID, kb.Name, kb.Description, string(kb.Type), []byte(contentOrEmpty(kb.Content)), string(kb.Status), kb.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, userID, id string) error {
	if !utils.IsUUID(id) {
		return apperr.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM knowledge_bases WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
