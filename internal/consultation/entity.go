package consultation

import "github.com/greenplate/nutricoach/internal/consultation/entity"

// Entities live in the entity subpackage so the repo can share them
// without importing this package back; this alias keeps the domain
// package's surface unchanged.
type Consultation = entity.Consultation

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)
