package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	catalogrepo "github.com/greenplate/nutricoach/internal/catalog/repo"
	"github.com/greenplate/nutricoach/pkg/utilities"
)

var ErrNotFound = errors.New("catalog entry not found")

// Service encapsulates recipe and blog catalog logic.
type Service struct {
	repo *catalogrepo.CatalogRepo
}

func NewService(r *catalogrepo.CatalogRepo) *Service { return &Service{repo: r} }

// CreateRecipe adds a recipe; the slug is generated, never client-supplied.
func (s *Service) CreateRecipe(ctx context.Context, authorID int64, title, body string, nutrition json.RawMessage, published bool) (*Recipe, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	if len(nutrition) > 0 && !json.Valid(nutrition) {
		return nil, errors.New("nutrition is not valid JSON")
	}
	return s.repo.CreateRecipe(ctx, &Recipe{
		Slug:      utilities.NewSnowflakeID(),
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		Nutrition: nutrition,
		Published: published,
	})
}

func (s *Service) GetRecipe(ctx context.Context, slug string) (*Recipe, error) {
	rec, err := s.repo.GetRecipeBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, catalogrepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *Service) ListRecipes(ctx context.Context, includeUnpublished bool, limit, offset int) ([]*Recipe, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListRecipes(ctx, includeUnpublished, limit, offset)
}

func (s *Service) UpdateRecipe(ctx context.Context, slug, title, body string, nutrition json.RawMessage, published bool) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title is required")
	}
	if len(nutrition) > 0 && !json.Valid(nutrition) {
		return errors.New("nutrition is not valid JSON")
	}
	if err := s.repo.UpdateRecipe(ctx, slug, title, body, nutrition, published); err != nil {
		if errors.Is(err, catalogrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) DeleteRecipe(ctx context.Context, slug string) error {
	if err := s.repo.DeleteRecipe(ctx, slug); err != nil {
		if errors.Is(err, catalogrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// CreatePost adds a blog article; publish now or keep as draft.
func (s *Service) CreatePost(ctx context.Context, authorID int64, title, body string, publish bool) (*Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	var publishedAt *time.Time
	if publish {
		now := time.Now().UTC()
		publishedAt = &now
	}
	return s.repo.CreatePost(ctx, &Post{
		Slug:        utilities.NewSnowflakeID(),
		AuthorID:    authorID,
		Title:       title,
		Body:        body,
		PublishedAt: publishedAt,
	})
}

func (s *Service) GetPost(ctx context.Context, slug string) (*Post, error) {
	p, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, catalogrepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPosts(ctx context.Context, includeDrafts bool, limit, offset int) ([]*Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPosts(ctx, includeDrafts, limit, offset)
}

func (s *Service) DeletePost(ctx context.Context, slug string) error {
	if err := s.repo.DeletePost(ctx, slug); err != nil {
		if errors.Is(err, catalogrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
