package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/pkg/utils"
)

// PostgresRepo assumes the calls table from internal/migrations with
// metadata as JSONB and a unique partial index on provider_call_id.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const callColumns = `id, user_id, phone_number, pathway_id, pathway_name, provider_call_id, status, duration, cost, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (Call, error) {
	var (
		c        Call
		metadata []byte
	)
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.PhoneNumber,
		&c.PathwayID,
		&c.PathwayName,
		&c.ProviderCallID,
		&c.Status,
		&c.Duration,
		&c.Cost,
		&metadata,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, apperr.ErrNotFound
		}
		return Call{}, err
	}
	c.Metadata = json.RawMessage(metadata)
	return c, nil
}

func (r *PostgresRepo) List(ctx context.Context, userID string, f ListFilter) ([]Call, int, error) {
	const countQ = `
SELECT COUNT(*) FROM calls
WHERE user_id = $1 AND ($2 = '' OR status = $2)
`
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, userID, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE user_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4
`
	rows, err := r.db.QueryContext(ctx, q, userID, string(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Call, 0, f.Limit)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, userID, id string) (Call, error) {
	if !utils.IsUUID(id) {
		return Call{}, apperr.ErrNotFound
	}
	const q = `SELECT ` + callColumns + ` FROM calls WHERE user_id = $1 AND id = $2`
	return scanCall(r.db.QueryRowContext(ctx, q, userID, id))
}

func (r *PostgresRepo) Create(ctx context.Context, c Call) error {
	const q = `
INSERT INTO calls (` + callColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.UserID,
		c.PhoneNumber,
		c.PathwayID,
		c.PathwayName,
		c.ProviderCallID,
		string(c.Status),
		c.Duration,
		c.Cost,
		metadataOrEmpty(c.Metadata),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, c Call) error {
	if !utils.IsUUID(c.ID) {
		return apperr.ErrNotFound
	}
	const q = `
UPDATE calls
SET provider_call_id = $3, status = $4, duration = $5, cost = $6, metadata = $7, updated_at = $8
WHERE user_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q, c.UserID, c.ID, c.ProviderCallID, string(c.Status), c.Duration, c.Cost, metadataOrEmpty(c.Metadata), c.UpdatedAt)
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

func (r *PostgresRepo) Advance(ctx context.Context, providerCallID string, fn func(Call) (Call, bool)) (Call, bool, error) {
	var (
		out     Call
		changed bool
	)
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		// Lock the row so concurrent callbacks for one call serialize.
		const q = `SELECT ` + callColumns + ` FROM calls WHERE provider_call_id = $1 FOR UPDATE`
		cur, err := scanCall(tx.QueryRowContext(ctx, q, providerCallID))
		if err != nil {
			return err
		}
		out, changed = fn(cur)
		if !changed {
			return nil
		}
		const u = `
UPDATE calls
SET status = $2, duration = $3, cost = $4, metadata = $5, updated_at = $6
WHERE id = $1
`
		_, err = tx.ExecContext(ctx, u, out.ID, string(out.Status), out.Duration, out.Cost, metadataOrEmpty(out.Metadata), out.UpdatedAt)
		return err
	})
	if err != nil {
		return Call{}, false, err
	}
	return out, changed, nil
}

func (r *PostgresRepo) Totals(ctx context.Context, userID string) (Totals, error) {
	const q = `
SELECT
  COUNT(*),
  COUNT(*) FILTER (WHERE status = 'completed'),
  COUNT(*) FILTER (WHERE status = 'failed'),
  COUNT(*) FILTER (WHERE status = 'in_progress'),
  COALESCE(SUM(duration) FILTER (WHERE status = 'completed'), 0),
  COALESCE(SUM(cost), 0)
FROM calls
WHERE user_id = $1
`
	var t Totals
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&t.Total,
		&t.Completed,
		&t.Failed,
		&t.InProgress,
		&t.CompletedDuration,
		&t.TotalCost,
	); err != nil {
		return Totals{}, err
	}
	return t, nil
}

func metadataOrEmpty(m json.RawMessage) []byte {
	if len(m) == 0 {
		return []byte(`{}`)
	}
	return m
}
