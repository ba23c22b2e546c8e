package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/greenplate/nutricoach/internal/client/entity"
)

var (
	ErrNotFound  = errors.New("link not found")
	ErrDuplicate = errors.New("link already exists")
)

// LinkRepo provides data access for dietitian-client links using sqlx.
type LinkRepo struct {
	db *sqlx.DB
}

func NewLinkRepo(db *sqlx.DB) *LinkRepo { return &LinkRepo{db: db} }

// EnsureTable creates the client_links table if not exists (idempotent).
func (r *LinkRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS client_links (
  id BIGSERIAL PRIMARY KEY,
  dietitian_id BIGINT NOT NULL REFERENCES users(id),
  client_id BIGINT NOT NULL REFERENCES users(id),
  status TEXT NOT NULL DEFAULT 'active',
  notes TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (dietitian_id, client_id)
);
CREATE INDEX IF NOT EXISTS idx_client_links_dietitian ON client_links(dietitian_id);
CREATE INDEX IF NOT EXISTS idx_client_links_client ON client_links(client_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const columns = `id, dietitian_id, client_id, status, notes, created_at, updated_at`

func (r *LinkRepo) Create(ctx context.Context, l *entity.Link) (*entity.Link, error) {
	const q = `INSERT INTO client_links (dietitian_id, client_id, status, notes)
		VALUES ($1, $2, $3, $4) RETURNING ` + columns
	var row entity.Link
	if err := r.db.GetContext(ctx, &row, q, l.DietitianID, l.ClientID, l.Status, l.Notes); err != nil {
		return nil, mapErr(err)
	}
	return &row, nil
}

func (r *LinkRepo) GetByID(ctx context.Context, id int64) (*entity.Link, error) {
	const q = `SELECT ` + columns + ` FROM client_links WHERE id=$1`
	var row entity.Link
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, mapErr(err)
	}
	return &row, nil
}

// ListByDietitian returns links for a dietitian, optionally filtered by status.
func (r *LinkRepo) ListByDietitian(ctx context.Context, dietitianID int64, status string) ([]*entity.Link, error) {
	q := `SELECT ` + columns + ` FROM client_links WHERE dietitian_id=$1`
	args := []any{dietitianID}
	if status != "" {
		q += ` AND status=$2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	var rows []*entity.Link
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	const q = `UPDATE client_links SET status=$2, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *LinkRepo) UpdateNotes(ctx context.Context, id int64, notes *string) error {
	const q = `UPDATE client_links SET notes=$2, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, notes)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
