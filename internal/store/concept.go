package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
)

// ConceptStore defines the interface for concept and concept-edge persistence.
type ConceptStore interface {
	// Create saves a new concept to the store.
	// Returns validation errors from the domain Concept if data is invalid.
	Create(ctx context.Context, concept *domain.Concept) error

	// GetByID retrieves a concept by its unique ID.
	// Returns ErrConceptNotFound if the concept does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Concept, error)

	// ListByUser retrieves all concepts owned by the given user.
	// Returns an empty slice when the user has no concepts.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Concept, error)

	// UpsertEdge inserts or replaces a weighted edge between two concepts.
	// Returns validation errors if the edge data is invalid.
	UpsertEdge(ctx context.Context, edge *domain.ConceptEdge) error

	// ListEdges retrieves all edges touching the given concept, in either
	// direction. Returns an empty slice when the concept has no edges.
	ListEdges(ctx context.Context, conceptID uuid.UUID) ([]*domain.ConceptEdge, error)

	// Delete removes a concept and every edge touching it. Notes that
	// reference the concept are not deleted; clearing their reference is
	// the caller's job, in the same transaction.
	// Returns ErrConceptNotFound if the concept does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new ConceptStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ConceptStore
}
