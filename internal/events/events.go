package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the engine.
const (
	// EventNoteMutated is emitted after any note create, update, promote
	// or delete. The profile invalidator consumes it.
	EventNoteMutated = "note.mutated"
)

// Note mutation kinds carried in a NoteMutatedPayload.
const (
	MutationCreate  = "create"
	MutationUpdate  = "update"
	MutationPromote = "promote"
	MutationDelete  = "delete"
)

// NoteMutatedPayload is the payload of an EventNoteMutated event.
type NoteMutatedPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	NoteID   uuid.UUID `json:"note_id"`
	Mutation string    `json:"mutation"`
}

// Event is a loosely typed notification dispatched to registered handlers.
// It carries its payload as JSON so emitters and handlers need no direct
// dependency on each other's types.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what happened
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// NewNoteMutatedEvent creates an EventNoteMutated event for the given note.
func NewNoteMutatedEvent(userID, noteID uuid.UUID, mutation string) (*Event, error) {
	return NewEvent(EventNoteMutated, NoteMutatedPayload{
		UserID:   userID,
		NoteID:   noteID,
		Mutation: mutation,
	})
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
