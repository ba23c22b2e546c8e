package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/greenplate/nutricoach/internal/consultation/entity"
)

var ErrNotFound = errors.New("consultation not found")

// ConsultationRepo provides data access for the consultations table using sqlx.
type ConsultationRepo struct {
	db *sqlx.DB
}

func NewConsultationRepo(db *sqlx.DB) *ConsultationRepo { return &ConsultationRepo{db: db} }

// EnsureTable creates the consultations table if not exists (idempotent).
func (r *ConsultationRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS consultations (
  id BIGSERIAL PRIMARY KEY,
  dietitian_id BIGINT NOT NULL REFERENCES users(id),
  client_id BIGINT NOT NULL REFERENCES users(id),
  scheduled_at TIMESTAMPTZ NOT NULL,
  duration_min INT NOT NULL DEFAULT 30,
  status TEXT NOT NULL DEFAULT 'scheduled',
  notes TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_consultations_dietitian ON consultations(dietitian_id, scheduled_at);
CREATE INDEX IF NOT EXISTS idx_consultations_client ON consultations(client_id, scheduled_at);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const columns = `id, dietitian_id, client_id, scheduled_at, duration_min, status, notes, created_at, updated_at`

func (r *ConsultationRepo) Create(ctx context.Context, c *entity.Consultation) (*entity.Consultation, error) {
	const q = `INSERT INTO consultations (dietitian_id, client_id, scheduled_at, duration_min, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + columns
	var row entity.Consultation
	err := r.db.GetContext(ctx, &row, q, c.DietitianID, c.ClientID, c.ScheduledAt, c.DurationMin, c.Status, c.Notes)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ConsultationRepo) GetByID(ctx context.Context, id int64) (*entity.Consultation, error) {
	const q = `SELECT ` + columns + ` FROM consultations WHERE id=$1`
	var row entity.Consultation
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// ListForUser returns consultations where the user is either side.
func (r *ConsultationRepo) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*entity.Consultation, error) {
	const q = `SELECT ` + columns + ` FROM consultations
		WHERE dietitian_id=$1 OR client_id=$1
		ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3`
	var rows []*entity.Consultation
	if err := r.db.SelectContext(ctx, &rows, q, userID, limit, offset); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ConsultationRepo) UpdateStatus(ctx context.Context, id int64, status string, notes *string) error {
	const q = `UPDATE consultations SET status=$2, notes=COALESCE($3, notes), updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, status, notes)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ConsultationRepo) Reschedule(ctx context.Context, id int64, scheduledAt sql.NullTime, durationMin int) error {
	const q = `UPDATE consultations SET scheduled_at=COALESCE($2, scheduled_at),
		duration_min=CASE WHEN $3 > 0 THEN $3 ELSE duration_min END, updated_at=NOW()
		WHERE id=$1 AND status='scheduled'`
	res, err := r.db.ExecContext(ctx, q, id, scheduledAt, durationMin)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
