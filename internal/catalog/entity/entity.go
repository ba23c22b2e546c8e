package entity

import (
	"encoding/json"
	"time"
)

// Recipe is a published cooking entry in the public catalog. Slug is a
// snowflake id string so it is unique across instances without coordination.
type Recipe struct {
	ID        int64           `db:"id" json:"id"`
	Slug      string          `db:"slug" json:"slug"`
	AuthorID  int64           `db:"author_id" json:"author_id"`
	Title     string          `db:"title" json:"title"`
	Body      string          `db:"body" json:"body"`
	Nutrition json.RawMessage `db:"nutrition" json:"nutrition"`
	Published bool            `db:"published" json:"published"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Post is a blog article.
type Post struct {
	ID          int64      `db:"id" json:"id"`
	Slug        string     `db:"slug" json:"slug"`
	AuthorID    int64      `db:"author_id" json:"author_id"`
	Title       string     `db:"title" json:"title"`
	Body        string     `db:"body" json:"body"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
