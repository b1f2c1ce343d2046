package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Concept-specific validation errors
var (
	ErrConceptIDEmpty   = errors.New("concept ID cannot be empty")
	ErrConceptNameEmpty = errors.New("concept name cannot be empty")
)

// Concept is a named idea that notes may reference. The reference is weak:
// deleting a concept nulls the reference on its notes rather than deleting
// them.
type Concept struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewConcept creates a new Concept with the given owner, name and description.
// Returns an error if validation fails.
func NewConcept(userID uuid.UUID, name, description string) (*Concept, error) {
	concept := &Concept{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := concept.Validate(); err != nil {
		return nil, err
	}

	return concept, nil
}

// Validate checks if the Concept has valid data.
func (c *Concept) Validate() error {
	if c.ID == uuid.Nil {
		return ErrConceptIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrNoteUserIDEmpty
	}

	if c.Name == "" {
		return ErrConceptNameEmpty
	}

	return nil
}

// ConceptEdge validation errors
var (
	ErrEdgeConceptEmpty = errors.New("concept edge endpoints cannot be empty")
	ErrEdgeSelfLoop     = errors.New("concept edge cannot connect a concept to itself")
	ErrEdgeWeightRange  = errors.New("concept edge weight must be between 0 and 1")
)

// ConceptEdge is a weighted association between two concepts, created when
// a concept-map structure is assigned to a note. Weight expresses
// association strength in [0,1].
type ConceptEdge struct {
	ID            uuid.UUID `json:"id"`
	FromConceptID uuid.UUID `json:"from_concept_id"`
	ToConceptID   uuid.UUID `json:"to_concept_id"`
	Weight        float64   `json:"weight"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewConceptEdge creates a weighted edge between two concepts.
// Returns an error if validation fails.
func NewConceptEdge(from, to uuid.UUID, weight float64) (*ConceptEdge, error) {
	edge := &ConceptEdge{
		ID:            uuid.New(),
		FromConceptID: from,
		ToConceptID:   to,
		Weight:        weight,
		CreatedAt:     time.Now().UTC(),
	}

	if err := edge.Validate(); err != nil {
		return nil, err
	}

	return edge, nil
}

// Validate checks if the ConceptEdge has valid data.
func (e *ConceptEdge) Validate() error {
	if e.FromConceptID == uuid.Nil || e.ToConceptID == uuid.Nil {
		return ErrEdgeConceptEmpty
	}

	if e.FromConceptID == e.ToConceptID {
		return ErrEdgeSelfLoop
	}

	if e.Weight < 0 || e.Weight > 1 {
		return ErrEdgeWeightRange
	}

	return nil
}
