package entity

import (
	"time"

	"github.com/greenplate/nutricoach/internal/identity"
)

// User represents an account row in the `users` table. A usable account has
// an external provider id, a password hash, or both after linking; which of
// the two exists decides which login paths work for it.
type User struct {
	ID           int64         `db:"id"`
	ExternalID   *string       `db:"external_id"`
	Email        string        `db:"email"`
	PasswordHash *string       `db:"password_hash"`
	Role         identity.Role `db:"role"`
	FirstName    *string       `db:"first_name"`
	LastName     *string       `db:"last_name"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

// Account converts to the minimal projection the identity resolver consumes.
func (u *User) Account() *identity.Account {
	return &identity.Account{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Email:      u.Email,
		Role:       u.Role,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
