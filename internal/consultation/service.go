package consultation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	consultationrepo "github.com/greenplate/nutricoach/internal/consultation/repo"
)

var (
	ErrNotFound      = errors.New("consultation not found")
	ErrBadTransition = errors.New("invalid status change")
)

// Store is the repository surface the service needs; the sqlx repo
// satisfies it, tests inject a fake.
type Store interface {
	Create(ctx context.Context, c *Consultation) (*Consultation, error)
	GetByID(ctx context.Context, id int64) (*Consultation, error)
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Consultation, error)
	UpdateStatus(ctx context.Context, id int64, status string, notes *string) error
	Reschedule(ctx context.Context, id int64, scheduledAt sql.NullTime, durationMin int) error
}

// Service encapsulates consultation scheduling logic.
type Service struct {
	repo Store
}

func NewService(r Store) *Service { return &Service{repo: r} }

// Schedule books a session.
func (s *Service) Schedule(ctx context.Context, dietitianID, clientID int64, at time.Time, durationMin int, notes *string) (*Consultation, error) {
	if at.IsZero() || at.Before(time.Now()) {
		return nil, errors.New("scheduled_at must be in the future")
	}
	if durationMin <= 0 {
		durationMin = 30
	}
	return s.repo.Create(ctx, &Consultation{
		DietitianID: dietitianID,
		ClientID:    clientID,
		ScheduledAt: at,
		DurationMin: durationMin,
		Status:      StatusScheduled,
		Notes:       notes,
	})
}

// ListForUser returns sessions where the user is dietitian or client.
func (s *Service) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Consultation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListForUser(ctx, userID, limit, offset)
}

// SetStatus moves a session to completed or cancelled. Only scheduled
// sessions may move; terminal states stay put.
func (s *Service) SetStatus(ctx context.Context, id int64, status string, notes *string) error {
	if status != StatusCompleted && status != StatusCancelled {
		return ErrBadTransition
	}
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, consultationrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if cur.Status != StatusScheduled {
		return ErrBadTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, status, notes); err != nil {
		if errors.Is(err, consultationrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Reschedule moves a still-scheduled session to a new slot.
func (s *Service) Reschedule(ctx context.Context, id int64, at *time.Time, durationMin int) error {
	var t sql.NullTime
	if at != nil {
		if at.Before(time.Now()) {
			return errors.New("scheduled_at must be in the future")
		}
		t = sql.NullTime{Time: *at, Valid: true}
	}
	if err := s.repo.Reschedule(ctx, id, t, durationMin); err != nil {
		if errors.Is(err, consultationrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
