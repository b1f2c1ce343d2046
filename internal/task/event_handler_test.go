package task

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	users []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func TestNoteMutationHandlerInvalidates(t *testing.T) {
	t.Parallel()

	invalidator := &recordingInvalidator{}
	handler, err := NewNoteMutationHandler(invalidator, discardLogger())
	require.NoError(t, err)

	userID := uuid.New()
	event, err := events.NewNoteMutatedEvent(userID, uuid.New(), events.MutationUpdate)
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))
	require.Len(t, invalidator.users, 1)
	assert.Equal(t, userID, invalidator.users[0])
}

func TestNoteMutationHandlerIgnoresOtherEvents(t *testing.T) {
	t.Parallel()

	invalidator := &recordingInvalidator{}
	handler, err := NewNoteMutationHandler(invalidator, discardLogger())
	require.NoError(t, err)

	event, err := events.NewEvent("something.else", map[string]string{"k": "v"})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))
	assert.Empty(t, invalidator.users)
}

func TestNewNoteMutationHandlerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewNoteMutationHandler(nil, discardLogger())
	assert.Error(t, err)
}
