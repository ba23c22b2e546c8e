package mealplan

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

// validation rejects before the repo is ever touched, so a nil repo is fine
func TestCreate_Validation(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.Create(context.Background(), 1, 2, "   ", nil)
	assert.Error(t, err, "blank title rejected")

	_, err = svc.Create(context.Background(), 1, 2, "Week 1", json.RawMessage(`{"mon":`))
	assert.Error(t, err, "malformed days rejected")
}

func TestUpdate_Validation(t *testing.T) {
	svc := NewService(nil)

	assert.Error(t, svc.Update(context.Background(), 1, "", nil))
	assert.Error(t, svc.Update(context.Background(), 1, "Week 1", json.RawMessage(`[1,`)))
}
