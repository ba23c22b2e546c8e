package entity

import (
	"encoding/json"
	"time"
)

// Plan is a meal plan authored for a client. Days holds the day-by-day meal
// entries as raw JSON; the server never interprets its shape beyond
// validating it parses.
type Plan struct {
	ID        int64           `db:"id" json:"id"`
	ClientID  int64           `db:"client_id" json:"client_id"`
	AuthorID  int64           `db:"author_id" json:"author_id"`
	Title     string          `db:"title" json:"title"`
	Days      json.RawMessage `db:"days" json:"days"`
	Status    string          `db:"status" json:"status"` // draft / published
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
