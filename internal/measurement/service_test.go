package measurement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// validation rejects before the repo is ever touched, so a nil repo is fine
func TestRecord_Validation(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.Record(context.Background(), &Measurement{})
	assert.Error(t, err, "client_id is required")

	tooHeavy := 501.0
	_, err = svc.Record(context.Background(), &Measurement{ClientID: 1, WeightKg: &tooHeavy})
	assert.Error(t, err)

	negative := -2.5
	_, err = svc.Record(context.Background(), &Measurement{ClientID: 1, WeightKg: &negative})
	assert.Error(t, err)
}
