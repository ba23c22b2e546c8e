package client

import "github.com/greenplate/nutricoach/internal/client/entity"

// Entities live in the entity subpackage so the repo can share them
// without importing this package back; this alias keeps the domain
// package's surface unchanged.
type Link = entity.Link

const (
	StatusActive   = "active"
	StatusArchived = "archived"
)
