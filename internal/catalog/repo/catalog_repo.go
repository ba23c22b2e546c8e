package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/greenplate/nutricoach/internal/catalog/entity"
)

var ErrNotFound = errors.New("catalog entry not found")

// CatalogRepo provides data access for recipes and blog posts using sqlx.
type CatalogRepo struct {
	db *sqlx.DB
}

func NewCatalogRepo(db *sqlx.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// EnsureTables creates the catalog tables if not exists (idempotent).
func (r *CatalogRepo) EnsureTables(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS recipes (
  id BIGSERIAL PRIMARY KEY,
  slug TEXT UNIQUE NOT NULL,
  author_id BIGINT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL,
  body TEXT NOT NULL DEFAULT '',
  nutrition JSONB NOT NULL DEFAULT '{}'::jsonb,
  published BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS posts (
  id BIGSERIAL PRIMARY KEY,
  slug TEXT UNIQUE NOT NULL,
  author_id BIGINT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL,
  body TEXT NOT NULL DEFAULT '',
  published_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const recipeColumns = `id, slug, author_id, title, body, nutrition, published, created_at, updated_at`
const postColumns = `id, slug, author_id, title, body, published_at, created_at, updated_at`

func (r *CatalogRepo) CreateRecipe(ctx context.Context, rec *entity.Recipe) (*entity.Recipe, error) {
	const q = `INSERT INTO recipes (slug, author_id, title, body, nutrition, published)
		VALUES ($1, $2, $3, $4, COALESCE($5,'{}'::jsonb), $6) RETURNING ` + recipeColumns
	var row entity.Recipe
	err := r.db.GetContext(ctx, &row, q, rec.Slug, rec.AuthorID, rec.Title, rec.Body, []byte(rec.Nutrition), rec.Published)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *CatalogRepo) GetRecipeBySlug(ctx context.Context, slug string) (*entity.Recipe, error) {
	const q = `SELECT ` + recipeColumns + ` FROM recipes WHERE slug=$1`
	var row entity.Recipe
	if err := r.db.GetContext(ctx, &row, q, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// ListRecipes returns recipes newest first; unpublished ones only when
// includeUnpublished is set.
func (r *CatalogRepo) ListRecipes(ctx context.Context, includeUnpublished bool, limit, offset int) ([]*entity.Recipe, error) {
	q := `SELECT ` + recipeColumns + ` FROM recipes`
	if !includeUnpublished {
		q += ` WHERE published`
	}
	q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var rows []*entity.Recipe
	if err := r.db.SelectContext(ctx, &rows, q, limit, offset); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepo) UpdateRecipe(ctx context.Context, slug string, title, body string, nutrition []byte, published bool) error {
	const q = `UPDATE recipes SET title=$2, body=$3, nutrition=COALESCE($4, nutrition), published=$5, updated_at=NOW() WHERE slug=$1`
	res, err := r.db.ExecContext(ctx, q, slug, title, body, nutrition, published)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepo) DeleteRecipe(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE slug=$1`, slug)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepo) CreatePost(ctx context.Context, p *entity.Post) (*entity.Post, error) {
	const q = `INSERT INTO posts (slug, author_id, title, body, published_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING ` + postColumns
	var row entity.Post
	if err := r.db.GetContext(ctx, &row, q, p.Slug, p.AuthorID, p.Title, p.Body, p.PublishedAt); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *CatalogRepo) GetPostBySlug(ctx context.Context, slug string) (*entity.Post, error) {
	const q = `SELECT ` + postColumns + ` FROM posts WHERE slug=$1`
	var row entity.Post
	if err := r.db.GetContext(ctx, &row, q, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *CatalogRepo) ListPosts(ctx context.Context, includeDrafts bool, limit, offset int) ([]*entity.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts`
	if !includeDrafts {
		q += ` WHERE published_at IS NOT NULL`
	}
	q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var rows []*entity.Post
	if err := r.db.SelectContext(ctx, &rows, q, limit, offset); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepo) DeletePost(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE slug=$1`, slug)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
