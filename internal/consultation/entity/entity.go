package entity

import "time"

// Consultation is a scheduled coaching session between a dietitian and a
// client. Status is a plain enum update, not a workflow engine.
type Consultation struct {
	ID          int64     `db:"id" json:"id"`
	DietitianID int64     `db:"dietitian_id" json:"dietitian_id"`
	ClientID    int64     `db:"client_id" json:"client_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	DurationMin int       `db:"duration_min" json:"duration_min"`
	Status      string    `db:"status" json:"status"`
	Notes       *string   `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
