package entity

import "time"

// Link represents a dietitian-client relationship row. One dietitian (or a
// team member acting for one) coaches many clients; a client may be coached
// by several dietitians over time, but at most one active link per pair.
type Link struct {
	ID          int64     `db:"id" json:"id"`
	DietitianID int64     `db:"dietitian_id" json:"dietitian_id"`
	ClientID    int64     `db:"client_id" json:"client_id"`
	Status      string    `db:"status" json:"status"` // active / archived
	Notes       *string   `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
