package entity

import (
	"encoding/json"
	"time"
)

// Measurement is one body-measurement entry recorded for a client. WeightKg
// is first-class because every chart uses it; everything else (waist, body
// fat, blood pressure) rides in the metrics JSONB.
type Measurement struct {
	ID        int64           `db:"id" json:"id"`
	ClientID  int64           `db:"client_id" json:"client_id"`
	TakenAt   time.Time       `db:"taken_at" json:"taken_at"`
	WeightKg  *float64        `db:"weight_kg" json:"weight_kg"`
	Metrics   json.RawMessage `db:"metrics" json:"metrics"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
