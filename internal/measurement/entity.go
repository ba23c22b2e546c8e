package measurement

import "github.com/greenplate/nutricoach/internal/measurement/entity"

// Entities live in the entity subpackage so the repo can share them
// without importing this package back; this alias keeps the domain
// package's surface unchanged.
type Measurement = entity.Measurement
