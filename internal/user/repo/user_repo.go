package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/greenplate/nutricoach/internal/identity"
	"github.com/greenplate/nutricoach/internal/user/entity"
)

// ErrDuplicate signals a uniqueness-constraint violation (email or
// external id). Callers decide whether that is a conflict to surface or a
// provisioning race to absorb.
var ErrDuplicate = errors.New("duplicate user")

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
// The unique constraints on email and external_id are load-bearing: the
// identity resolver relies on them to settle concurrent first-sight
// provisioning instead of taking any in-process lock.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  external_id TEXT UNIQUE,
  email CITEXT UNIQUE NOT NULL,
  password_hash TEXT,
  role TEXT NOT NULL DEFAULT 'client',
  first_name TEXT,
  last_name TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const userColumns = `id, external_id, email, password_hash, role, first_name, last_name, created_at, updated_at`

// Create inserts a new user row and returns it with the generated id.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	const q = `INSERT INTO users (external_id, email, password_hash, role, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	var row entity.User
	err := r.db.GetContext(ctx, &row, q, u.ExternalID, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName)
	if err != nil {
		return nil, mapErr(err)
	}
	return &row, nil
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, mapErr(err)
	}
	return &row, nil
}

// GetByExternalID fetches by the external provider's subject id.
func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE external_id=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, externalID); err != nil {
		return nil, mapErr(err)
	}
	return &row, nil
}

// GetByEmail returns a user matched by email (case-insensitive due to citext).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, mapErr(err)
	}
	return &row, nil
}

// AttachExternalID links an external provider identity to an existing row.
// The guard on external_id IS NULL keeps a second provider account from
// silently overwriting an earlier link.
func (r *UserRepo) AttachExternalID(ctx context.Context, id int64, externalID string) error {
	const q = `UPDATE users SET external_id=$2, updated_at=NOW() WHERE id=$1 AND external_id IS NULL`
	res, err := r.db.ExecContext(ctx, q, id, externalID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return identity.ErrNoAccount
	}
	return nil
}

// UpdateProfile updates mutable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, firstName, lastName *string) error {
	const q = `UPDATE users SET first_name=$2, last_name=$3, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, firstName, lastName)
	return err
}

// UpdateRole changes a user's role. Role changes are an administrative
// operation; the resolver never calls this.
func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role identity.Role) error {
	const q = `UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, role)
	return err
}

// mapErr converts driver errors into the package's sentinels.
func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return identity.ErrNoAccount
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
