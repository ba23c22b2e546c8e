package identity

import (
	"context"
	"errors"
	"time"
)

// Account is the projection of a users row the resolver needs. The full
// entity lives in the user package; the resolver only reads id, role and
// the two lookup keys.
type Account struct {
	ID         int64
	ExternalID *string
	Email      string
	Role       Role
	FirstName  *string
	LastName   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewAccount describes a row to provision on first sight of an external
// identity. Role is always the lowest tier; names are copied from the
// provider profile when present.
type NewAccount struct {
	ExternalID string
	Email      string
	FirstName  *string
	LastName   *string
}

var (
	// ErrNoAccount is the store's not-found signal.
	ErrNoAccount = errors.New("account not found")
	// ErrDuplicateAccount signals a uniqueness-constraint hit on insert.
	// The resolver converts it into a re-fetch, never a request failure.
	ErrDuplicateAccount = errors.New("account already exists")
)

// Directory is the read/write contract the resolver consumes from the
// relational store (find-by-id / external-id / email, insert, attach).
type Directory interface {
	FindByID(ctx context.Context, id int64) (*Account, error)
	FindByExternalID(ctx context.Context, externalID string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, acc NewAccount) (*Account, error)
	AttachExternalID(ctx context.Context, id int64, externalID string) error
}

// Profile is the subset of an external-provider account the resolver needs
// for lazy provisioning.
type Profile struct {
	Subject   string
	Email     string
	FirstName *string
	LastName  *string
}

// ProfileAPI fetches a provider account's profile by subject id.
type ProfileAPI interface {
	FetchProfile(ctx context.Context, subject string) (*Profile, error)
}
