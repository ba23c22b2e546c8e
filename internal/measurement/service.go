package measurement

import (
	"context"
	"errors"
	"time"

	measurementrepo "github.com/greenplate/nutricoach/internal/measurement/repo"
)

var ErrNotFound = errors.New("measurement not found")

// Service encapsulates measurement logic and depends on a repo.
type Service struct {
	repo *measurementrepo.MeasurementRepo
}

func NewService(r *measurementrepo.MeasurementRepo) *Service { return &Service{repo: r} }

// Record stores a new entry. TakenAt defaults to now; a weight, when
// present, must be physically plausible.
func (s *Service) Record(ctx context.Context, m *Measurement) (*Measurement, error) {
	if m.ClientID == 0 {
		return nil, errors.New("client_id is required")
	}
	if m.TakenAt.IsZero() {
		m.TakenAt = time.Now().UTC()
	}
	if m.WeightKg != nil && (*m.WeightKg <= 0 || *m.WeightKg > 500) {
		return nil, errors.New("weight_kg out of range")
	}
	return s.repo.Create(ctx, m)
}

// History returns a client's entries newest first with pagination.
func (s *Service) History(ctx context.Context, clientID int64, limit, offset int) ([]*Measurement, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, measurementrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Get fetches a single entry; used by handlers for ownership checks.
func (s *Service) Get(ctx context.Context, id int64) (*Measurement, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, measurementrepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}
