package user

import (
	"context"
	"errors"

	"github.com/greenplate/nutricoach/internal/identity"
	"github.com/greenplate/nutricoach/internal/user/entity"
	userrepo "github.com/greenplate/nutricoach/internal/user/repo"
)

// Directory adapts the users repository to the read/write contract the
// identity resolver consumes.
type Directory struct {
	repo *userrepo.UserRepo
}

func NewDirectory(r *userrepo.UserRepo) *Directory { return &Directory{repo: r} }

var _ identity.Directory = (*Directory)(nil)

func (d *Directory) FindByID(ctx context.Context, id int64) (*identity.Account, error) {
	u, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Account(), nil
}

func (d *Directory) FindByExternalID(ctx context.Context, externalID string) (*identity.Account, error) {
	u, err := d.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return u.Account(), nil
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	u, err := d.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return u.Account(), nil
}

func (d *Directory) Create(ctx context.Context, acc identity.NewAccount) (*identity.Account, error) {
	ext := acc.ExternalID
	u, err := d.repo.Create(ctx, &entity.User{
		ExternalID: &ext,
		Email:      acc.Email,
		Role:       identity.RoleClient,
		FirstName:  acc.FirstName,
		LastName:   acc.LastName,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, identity.ErrDuplicateAccount
		}
		return nil, err
	}
	return u.Account(), nil
}

func (d *Directory) AttachExternalID(ctx context.Context, id int64, externalID string) error {
	return d.repo.AttachExternalID(ctx, id, externalID)
}
