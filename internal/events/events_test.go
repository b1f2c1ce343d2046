package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	type testPayload struct {
		ID     uuid.UUID `json:"id"`
		Action string    `json:"action"`
	}

	payload := testPayload{
		ID:     uuid.New(),
		Action: "test_action",
	}

	eventType := "test_event"
	event, err := NewEvent(eventType, payload)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, eventType, event.Type)
	assert.NotNil(t, event.Payload)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decodedPayload testPayload
	err = json.Unmarshal(event.Payload, &decodedPayload)
	require.NoError(t, err)
	assert.Equal(t, payload, decodedPayload)
}

func TestNewNoteMutatedEvent(t *testing.T) {
	userID := uuid.New()
	noteID := uuid.New()

	event, err := NewNoteMutatedEvent(userID, noteID, MutationPromote)
	require.NoError(t, err)
	assert.Equal(t, EventNoteMutated, event.Type)

	var payload NoteMutatedPayload
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, userID, payload.UserID)
	assert.Equal(t, noteID, payload.NoteID)
	assert.Equal(t, MutationPromote, payload.Mutation)
}

func TestUnmarshalPayloadInvalidTarget(t *testing.T) {
	event, err := NewEvent("test_event", map[string]string{"key": "value"})
	require.NoError(t, err)

	var wrongType int
	err = event.UnmarshalPayload(&wrongType)
	assert.Error(t, err)
}
