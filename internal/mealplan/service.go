package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	planrepo "github.com/greenplate/nutricoach/internal/mealplan/repo"
)

var ErrNotFound = errors.New("meal plan not found")

// Service encapsulates meal plan logic.
type Service struct {
	repo *planrepo.PlanRepo
}

func NewService(r *planrepo.PlanRepo) *Service { return &Service{repo: r} }

// Create authors a new draft plan for a client.
func (s *Service) Create(ctx context.Context, authorID, clientID int64, title string, days json.RawMessage) (*Plan, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	if len(days) > 0 && !json.Valid(days) {
		return nil, errors.New("days is not valid JSON")
	}
	return s.repo.Create(ctx, &Plan{
		ClientID: clientID,
		AuthorID: authorID,
		Title:    title,
		Days:     days,
		Status:   StatusDraft,
	})
}

// Get fetches a plan by id.
func (s *Service) Get(ctx context.Context, id int64) (*Plan, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, planrepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByClient returns a client's plans; drafts only for coaching roles.
func (s *Service) ListByClient(ctx context.Context, clientID int64, includeDrafts bool) ([]*Plan, error) {
	return s.repo.ListByClient(ctx, clientID, includeDrafts)
}

// Update replaces title and day entries.
func (s *Service) Update(ctx context.Context, id int64, title string, days json.RawMessage) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title is required")
	}
	if len(days) > 0 && !json.Valid(days) {
		return errors.New("days is not valid JSON")
	}
	if err := s.repo.Update(ctx, id, title, days); err != nil {
		if errors.Is(err, planrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Publish makes the plan visible to the client.
func (s *Service) Publish(ctx context.Context, id int64) error {
	if err := s.repo.SetStatus(ctx, id, StatusPublished); err != nil {
		if errors.Is(err, planrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a plan.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, planrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
