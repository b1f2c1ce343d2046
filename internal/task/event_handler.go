package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/events"
)

// ProfileInvalidator marks a user's cached learner profile stale and
// schedules its recompute. Implemented by the profile service.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// NoteMutationHandler consumes note mutation events and invalidates the
// mutating user's learner profile. It decouples note services from the
// profile cache: emitters only publish events.
type NoteMutationHandler struct {
	invalidator ProfileInvalidator
	logger      *slog.Logger
}

// NewNoteMutationHandler creates a handler that forwards note mutations to
// the given invalidator.
func NewNoteMutationHandler(invalidator ProfileInvalidator, logger *slog.Logger) (*NoteMutationHandler, error) {
	if invalidator == nil {
		return nil, fmt.Errorf("invalidator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &NoteMutationHandler{
		invalidator: invalidator,
		logger:      logger.With("component", "note_mutation_handler"),
	}, nil
}

// Ensure NoteMutationHandler implements events.EventHandler
var _ events.EventHandler = (*NoteMutationHandler)(nil)

// HandleEvent implements events.EventHandler. Events of other types are
// ignored.
func (h *NoteMutationHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.EventNoteMutated {
		return nil
	}

	var payload events.NoteMutatedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to decode note mutation payload",
			"error", err,
			"event_id", event.ID)
		return fmt.Errorf("failed to decode note mutation payload: %w", err)
	}

	h.logger.Debug("invalidating profile after note mutation",
		"user_id", payload.UserID,
		"note_id", payload.NoteID,
		"mutation", payload.Mutation)

	h.invalidator.Invalidate(ctx, payload.UserID)
	return nil
}
