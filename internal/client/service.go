package client

import (
	"context"
	"errors"

	linkrepo "github.com/greenplate/nutricoach/internal/client/repo"
)

var (
	ErrNotFound      = errors.New("client link not found")
	ErrAlreadyLinked = errors.New("client already linked")
)

// Store is the repository surface the service needs; the sqlx repo
// satisfies it, tests inject a fake.
type Store interface {
	Create(ctx context.Context, l *Link) (*Link, error)
	ListByDietitian(ctx context.Context, dietitianID int64, status string) ([]*Link, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateNotes(ctx context.Context, id int64, notes *string) error
}

// Service encapsulates dietitian-client relationship logic.
type Service struct {
	repo Store
}

func NewService(r Store) *Service { return &Service{repo: r} }

// Add links a client to a dietitian's roster.
func (s *Service) Add(ctx context.Context, dietitianID, clientID int64, notes *string) (*Link, error) {
	if dietitianID == clientID {
		return nil, errors.New("cannot link a user to themselves")
	}
	l, err := s.repo.Create(ctx, &Link{DietitianID: dietitianID, ClientID: clientID, Status: StatusActive, Notes: notes})
	if err != nil {
		if errors.Is(err, linkrepo.ErrDuplicate) {
			return nil, ErrAlreadyLinked
		}
		return nil, err
	}
	return l, nil
}

// List returns a dietitian's roster, optionally filtered by status.
func (s *Service) List(ctx context.Context, dietitianID int64, status string) ([]*Link, error) {
	return s.repo.ListByDietitian(ctx, dietitianID, status)
}

// Archive soft-retires a link; the history stays queryable.
func (s *Service) Archive(ctx context.Context, id int64) error {
	if err := s.repo.UpdateStatus(ctx, id, StatusArchived); err != nil {
		if errors.Is(err, linkrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// UpdateNotes replaces the free-text notes on a link.
func (s *Service) UpdateNotes(ctx context.Context, id int64, notes *string) error {
	if err := s.repo.UpdateNotes(ctx, id, notes); err != nil {
		if errors.Is(err, linkrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
