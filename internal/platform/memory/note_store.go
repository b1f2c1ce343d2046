// Package memory provides in-memory store implementations used by tests
// and by single-process deployments that do not need postgres. All
// implementations are safe for concurrent use and hand out deep copies so
// callers can never mutate stored state in place.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"database/sql"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/store"
)

// NoteStore is an in-memory implementation of store.NoteStore.
type NoteStore struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]*domain.Note
}

// NewNoteStore creates an empty in-memory note store.
func NewNoteStore() *NoteStore {
	return &NoteStore{notes: make(map[uuid.UUID]*domain.Note)}
}

// ctxErr maps a cancelled or expired context onto the store error taxonomy.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", store.ErrTimeout, err)
		}
		return err
	}
	return nil
}

// Create saves a new note after validating it.
func (s *NoteStore) Create(ctx context.Context, note *domain.Note) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := note.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[note.ID]; exists {
		return store.ErrDuplicate
	}

	s.notes[note.ID] = note.Clone()
	return nil
}

// GetByID retrieves a copy of the note with the given ID.
func (s *NoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	note, ok := s.notes[id]
	if !ok {
		return nil, store.ErrNoteNotFound
	}

	return note.Clone(), nil
}

// ListByUser retrieves copies of all notes owned by the user, ordered by
// creation time.
func (s *NoteStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Note, 0)
	for _, note := range s.notes {
		if note.UserID == userID {
			result = append(result, note.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// Update replaces the stored note when expectedVersion matches, bumping
// the version by one. A stale expectedVersion returns ErrVersionConflict
// and leaves the stored note untouched.
func (s *NoteStore) Update(ctx context.Context, note *domain.Note, expectedVersion int) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := note.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.notes[note.ID]
	if !ok {
		return store.ErrNoteNotFound
	}

	if current.Version != expectedVersion {
		return fmt.Errorf("%w: note %s expected version %d, stored %d",
			store.ErrVersionConflict, note.ID, expectedVersion, current.Version)
	}

	updated := note.Clone()
	updated.Version = current.Version + 1
	s.notes[note.ID] = updated

	// Reflect the committed version back to the caller.
	note.Version = updated.Version
	return nil
}

// Delete removes the note with the given ID.
func (s *NoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return store.ErrNoteNotFound
	}

	delete(s.notes, id)
	return nil
}

// ClearConcept nulls the concept reference of every note pointing at the
// given concept. Versions are untouched: clearing a dangling reference is
// bookkeeping, not an edit.
func (s *NoteStore) ClearConcept(ctx context.Context, conceptID uuid.UUID) ([]uuid.UUID, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := make([]uuid.UUID, 0)
	for _, note := range s.notes {
		if note.ConceptID != nil && *note.ConceptID == conceptID {
			note.ConceptID = nil
			cleared = append(cleared, note.ID)
		}
	}

	sort.Slice(cleared, func(i, j int) bool {
		return cleared[i].String() < cleared[j].String()
	})

	return cleared, nil
}

// WithTx returns the store itself: the in-memory store has no transaction
// support, each operation is already atomic under its lock.
func (s *NoteStore) WithTx(_ *sql.Tx) store.NoteStore {
	return s
}
