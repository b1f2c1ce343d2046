package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
)

// NoteStore defines the interface for note data persistence.
type NoteStore interface {
	// Create saves a new note to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Note if data is invalid.
	Create(ctx context.Context, note *domain.Note) error

	// GetByID retrieves a note by its unique ID.
	// Returns ErrNoteNotFound if the note does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// ListByUser retrieves all notes owned by the given user, ordered by
	// creation time. Returns an empty slice when the user has no notes.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error)

	// Update saves changes to an existing note if and only if its stored
	// version equals expectedVersion, then increments the version.
	// Returns ErrNoteNotFound if the note does not exist.
	// Returns ErrVersionConflict if expectedVersion is stale.
	// Returns validation errors if the note data is invalid.
	Update(ctx context.Context, note *domain.Note, expectedVersion int) error

	// Delete removes a note by its unique ID.
	// Returns ErrNoteNotFound if the note does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ClearConcept nulls the concept reference of every note pointing at
	// the given concept, leaving the notes otherwise untouched. Returns the
	// IDs of the notes that were cleared.
	ClearConcept(ctx context.Context, conceptID uuid.UUID) ([]uuid.UUID, error)

	// WithTx returns a new NoteStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) NoteStore
}
