package catalog

import "github.com/greenplate/nutricoach/internal/catalog/entity"

// Entities live in the entity subpackage so the repo can share them
// without importing this package back; these aliases keep the domain
// package's surface unchanged.
type (
	Recipe = entity.Recipe
	Post   = entity.Post
)
