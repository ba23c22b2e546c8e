package mealplan

import "github.com/greenplate/nutricoach/internal/mealplan/entity"

// Entities live in the entity subpackage so the repo can share them
// without importing this package back; this alias keeps the domain
// package's surface unchanged.
type Plan = entity.Plan

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)
