package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/store"
)

// edgeKey identifies an edge by its endpoints; storing edges keyed this
// way makes UpsertEdge replace rather than accumulate.
type edgeKey struct {
	from uuid.UUID
	to   uuid.UUID
}

// ConceptStore is an in-memory implementation of store.ConceptStore.
type ConceptStore struct {
	mu       sync.RWMutex
	concepts map[uuid.UUID]*domain.Concept
	edges    map[edgeKey]*domain.ConceptEdge
}

// NewConceptStore creates an empty in-memory concept store.
func NewConceptStore() *ConceptStore {
	return &ConceptStore{
		concepts: make(map[uuid.UUID]*domain.Concept),
		edges:    make(map[edgeKey]*domain.ConceptEdge),
	}
}

// Create saves a new concept after validating it.
func (s *ConceptStore) Create(ctx context.Context, concept *domain.Concept) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := concept.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.concepts[concept.ID]; exists {
		return store.ErrDuplicate
	}

	clone := *concept
	s.concepts[concept.ID] = &clone
	return nil
}

// GetByID retrieves a copy of the concept with the given ID.
func (s *ConceptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Concept, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	concept, ok := s.concepts[id]
	if !ok {
		return nil, store.ErrConceptNotFound
	}

	clone := *concept
	return &clone, nil
}

// ListByUser retrieves copies of all concepts owned by the user.
func (s *ConceptStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Concept, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Concept, 0)
	for _, concept := range s.concepts {
		if concept.UserID == userID {
			clone := *concept
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// UpsertEdge inserts or replaces the weighted edge between two concepts.
func (s *ConceptStore) UpsertEdge(ctx context.Context, edge *domain.ConceptEdge) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := edge.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *edge
	s.edges[edgeKey{from: edge.FromConceptID, to: edge.ToConceptID}] = &clone
	return nil
}

// ListEdges retrieves all edges touching the given concept in either
// direction.
func (s *ConceptStore) ListEdges(ctx context.Context, conceptID uuid.UUID) ([]*domain.ConceptEdge, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ConceptEdge, 0)
	for _, edge := range s.edges {
		if edge.FromConceptID == conceptID || edge.ToConceptID == conceptID {
			clone := *edge
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].FromConceptID == result[j].FromConceptID {
			return result[i].ToConceptID.String() < result[j].ToConceptID.String()
		}
		return result[i].FromConceptID.String() < result[j].FromConceptID.String()
	})

	return result, nil
}

// Delete removes the concept and every edge touching it.
func (s *ConceptStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.concepts[id]; !ok {
		return store.ErrConceptNotFound
	}

	delete(s.concepts, id)
	for key := range s.edges {
		if key.from == id || key.to == id {
			delete(s.edges, key)
		}
	}
	return nil
}

// WithTx returns the store itself; in-memory operations are atomic.
func (s *ConceptStore) WithTx(_ *sql.Tx) store.ConceptStore {
	return s
}
