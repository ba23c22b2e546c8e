package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/greenplate/nutricoach/internal/measurement/entity"
)

var ErrNotFound = errors.New("measurement not found")

// MeasurementRepo provides data access for the measurements table using sqlx.
type MeasurementRepo struct {
	db *sqlx.DB
}

func NewMeasurementRepo(db *sqlx.DB) *MeasurementRepo { return &MeasurementRepo{db: db} }

// EnsureTable creates the measurements table if not exists (idempotent).
func (r *MeasurementRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS measurements (
  id BIGSERIAL PRIMARY KEY,
  client_id BIGINT NOT NULL REFERENCES users(id),
  taken_at TIMESTAMPTZ NOT NULL,
  weight_kg DOUBLE PRECISION,
  metrics JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_measurements_client_taken ON measurements(client_id, taken_at DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const columns = `id, client_id, taken_at, weight_kg, metrics, created_at`

func (r *MeasurementRepo) Create(ctx context.Context, m *entity.Measurement) (*entity.Measurement, error) {
	const q = `INSERT INTO measurements (client_id, taken_at, weight_kg, metrics)
		VALUES ($1, $2, $3, COALESCE($4,'{}'::jsonb)) RETURNING ` + columns
	var row entity.Measurement
	if err := r.db.GetContext(ctx, &row, q, m.ClientID, m.TakenAt, m.WeightKg, []byte(m.Metrics)); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByClient returns a client's entries newest first.
func (r *MeasurementRepo) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]*entity.Measurement, error) {
	const q = `SELECT ` + columns + ` FROM measurements WHERE client_id=$1 ORDER BY taken_at DESC LIMIT $2 OFFSET $3`
	var rows []*entity.Measurement
	if err := r.db.SelectContext(ctx, &rows, q, clientID, limit, offset); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *MeasurementRepo) GetByID(ctx context.Context, id int64) (*entity.Measurement, error) {
	const q = `SELECT ` + columns + ` FROM measurements WHERE id=$1`
	var row entity.Measurement
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *MeasurementRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM measurements WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
