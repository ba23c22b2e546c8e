package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/greenplate/nutricoach/internal/mealplan/entity"
)

var ErrNotFound = errors.New("meal plan not found")

// PlanRepo provides data access for the meal_plans table using sqlx.
type PlanRepo struct {
	db *sqlx.DB
}

func NewPlanRepo(db *sqlx.DB) *PlanRepo { return &PlanRepo{db: db} }

// EnsureTable creates the meal_plans table if not exists (idempotent).
func (r *PlanRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS meal_plans (
  id BIGSERIAL PRIMARY KEY,
  client_id BIGINT NOT NULL REFERENCES users(id),
  author_id BIGINT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL,
  days JSONB NOT NULL DEFAULT '[]'::jsonb,
  status TEXT NOT NULL DEFAULT 'draft',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_meal_plans_client ON meal_plans(client_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const columns = `id, client_id, author_id, title, days, status, created_at, updated_at`

func (r *PlanRepo) Create(ctx context.Context, p *entity.Plan) (*entity.Plan, error) {
	const q = `INSERT INTO meal_plans (client_id, author_id, title, days, status)
		VALUES ($1, $2, $3, COALESCE($4,'[]'::jsonb), $5) RETURNING ` + columns
	var row entity.Plan
	if err := r.db.GetContext(ctx, &row, q, p.ClientID, p.AuthorID, p.Title, []byte(p.Days), p.Status); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *PlanRepo) GetByID(ctx context.Context, id int64) (*entity.Plan, error) {
	const q = `SELECT ` + columns + ` FROM meal_plans WHERE id=$1`
	var row entity.Plan
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// ListByClient returns plans for a client newest first. Drafts are included
// only when includeDrafts is set (clients see published plans only).
func (r *PlanRepo) ListByClient(ctx context.Context, clientID int64, includeDrafts bool) ([]*entity.Plan, error) {
	q := `SELECT ` + columns + ` FROM meal_plans WHERE client_id=$1`
	if !includeDrafts {
		q += ` AND status='published'`
	}
	q += ` ORDER BY created_at DESC`
	var rows []*entity.Plan
	if err := r.db.SelectContext(ctx, &rows, q, clientID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PlanRepo) Update(ctx context.Context, id int64, title string, days []byte) error {
	const q = `UPDATE meal_plans SET title=$2, days=COALESCE($3, days), updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, title, days)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PlanRepo) SetStatus(ctx context.Context, id int64, status string) error {
	const q = `UPDATE meal_plans SET status=$2, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PlanRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
