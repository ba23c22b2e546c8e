package consultation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consultationrepo "github.com/greenplate/nutricoach/internal/consultation/repo"
)

type fakeStore struct {
	sessions map[int64]*Consultation
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[int64]*Consultation{}, nextID: 1}
}

func (f *fakeStore) Create(_ context.Context, c *Consultation) (*Consultation, error) {
	cp := *c
	cp.ID = f.nextID
	f.nextID++
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.sessions[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Consultation, error) {
	if c, ok := f.sessions[id]; ok {
		return c, nil
	}
	return nil, consultationrepo.ErrNotFound
}

func (f *fakeStore) ListForUser(_ context.Context, userID int64, limit, offset int) ([]*Consultation, error) {
	var out []*Consultation
	for _, c := range f.sessions {
		if c.DietitianID == userID || c.ClientID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id int64, status string, notes *string) error {
	c, ok := f.sessions[id]
	if !ok {
		return consultationrepo.ErrNotFound
	}
	c.Status = status
	if notes != nil {
		c.Notes = notes
	}
	return nil
}

func (f *fakeStore) Reschedule(_ context.Context, id int64, scheduledAt sql.NullTime, durationMin int) error {
	c, ok := f.sessions[id]
	if !ok || c.Status != StatusScheduled {
		return consultationrepo.ErrNotFound
	}
	if scheduledAt.Valid {
		c.ScheduledAt = scheduledAt.Time
	}
	if durationMin > 0 {
		c.DurationMin = durationMin
	}
	return nil
}

func TestSchedule(t *testing.T) {
	svc := NewService(newFakeStore())

	at := time.Now().Add(48 * time.Hour)
	c, err := svc.Schedule(context.Background(), 1, 2, at, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, c.Status)
	assert.Equal(t, 30, c.DurationMin, "duration defaults when omitted")
}

func TestSchedule_PastSlotRejected(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.Schedule(context.Background(), 1, 2, time.Now().Add(-time.Hour), 30, nil)
	assert.Error(t, err)
}

func TestSetStatus_Transitions(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	c, err := svc.Schedule(context.Background(), 1, 2, time.Now().Add(time.Hour), 30, nil)
	require.NoError(t, err)

	// scheduled -> completed is allowed
	note := "went well"
	require.NoError(t, svc.SetStatus(context.Background(), c.ID, StatusCompleted, &note))
	got, err := store.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "went well", *got.Notes)

	// completed is terminal
	err = svc.SetStatus(context.Background(), c.ID, StatusCancelled, nil)
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestSetStatus_RejectsUnknownTarget(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	c, err := svc.Schedule(context.Background(), 1, 2, time.Now().Add(time.Hour), 30, nil)
	require.NoError(t, err)

	err = svc.SetStatus(context.Background(), c.ID, "postponed", nil)
	assert.ErrorIs(t, err, ErrBadTransition)

	err = svc.SetStatus(context.Background(), c.ID, StatusScheduled, nil)
	assert.ErrorIs(t, err, ErrBadTransition, "cannot re-enter scheduled")
}

func TestSetStatus_NotFound(t *testing.T) {
	svc := NewService(newFakeStore())

	err := svc.SetStatus(context.Background(), 404, StatusCancelled, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReschedule(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	c, err := svc.Schedule(context.Background(), 1, 2, time.Now().Add(time.Hour), 30, nil)
	require.NoError(t, err)

	newSlot := time.Now().Add(72 * time.Hour)
	require.NoError(t, svc.Reschedule(context.Background(), c.ID, &newSlot, 45))

	got, err := store.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, got.ScheduledAt.Equal(newSlot))
	assert.Equal(t, 45, got.DurationMin)
}

func TestReschedule_PastSlotRejected(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	c, err := svc.Schedule(context.Background(), 1, 2, time.Now().Add(time.Hour), 30, nil)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	assert.Error(t, svc.Reschedule(context.Background(), c.ID, &past, 0))
}

func TestReschedule_TerminalSession(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	c, err := svc.Schedule(context.Background(), 1, 2, time.Now().Add(time.Hour), 30, nil)
	require.NoError(t, err)
	require.NoError(t, svc.SetStatus(context.Background(), c.ID, StatusCancelled, nil))

	slot := time.Now().Add(24 * time.Hour)
	assert.ErrorIs(t, svc.Reschedule(context.Background(), c.ID, &slot, 0), ErrNotFound)
}
