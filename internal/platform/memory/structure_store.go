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

// StructureStore is an in-memory implementation of store.StructureStore.
type StructureStore struct {
	mu          sync.RWMutex
	structures  map[uuid.UUID]*domain.MemoryStructure
	palaces     map[uuid.UUID]*domain.Palace
	rooms       map[uuid.UUID]*domain.Room
	memoryNodes map[uuid.UUID]*domain.MemoryNode
	palaceNodes map[uuid.UUID]*domain.PalaceNode
}

// NewStructureStore creates an empty in-memory structure store.
func NewStructureStore() *StructureStore {
	return &StructureStore{
		structures:  make(map[uuid.UUID]*domain.MemoryStructure),
		palaces:     make(map[uuid.UUID]*domain.Palace),
		rooms:       make(map[uuid.UUID]*domain.Room),
		memoryNodes: make(map[uuid.UUID]*domain.MemoryNode),
		palaceNodes: make(map[uuid.UUID]*domain.PalaceNode),
	}
}

// CreateStructure saves a new memory structure after validating it.
func (s *StructureStore) CreateStructure(ctx context.Context, structure *domain.MemoryStructure) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := structure.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.structures[structure.ID]; exists {
		return store.ErrDuplicate
	}

	clone := *structure
	s.structures[structure.ID] = &clone
	return nil
}

// GetStructure retrieves a copy of the structure with the given ID.
func (s *StructureStore) GetStructure(ctx context.Context, id uuid.UUID) (*domain.MemoryStructure, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	structure, ok := s.structures[id]
	if !ok {
		return nil, store.ErrStructureNotFound
	}

	clone := *structure
	return &clone, nil
}

// ListStructuresByUser retrieves copies of all structures owned by the
// user, newest modifications first.
func (s *StructureStore) ListStructuresByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryStructure, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MemoryStructure, 0)
	for _, structure := range s.structures {
		if structure.UserID == userID {
			clone := *structure
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].LastModified.After(result[j].LastModified)
	})

	return result, nil
}

// UpdateStructure replaces the stored structure.
func (s *StructureStore) UpdateStructure(ctx context.Context, structure *domain.MemoryStructure) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := structure.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.structures[structure.ID]; !ok {
		return store.ErrStructureNotFound
	}

	clone := *structure
	s.structures[structure.ID] = &clone
	return nil
}

// GetPalaceForCourse retrieves the user's palace for the given course.
func (s *StructureStore) GetPalaceForCourse(ctx context.Context, userID, courseID uuid.UUID) (*domain.Palace, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, palace := range s.palaces {
		if palace.UserID == userID && palace.CourseID != nil && *palace.CourseID == courseID {
			clone := *palace
			return &clone, nil
		}
	}

	return nil, store.ErrPalaceNotFound
}

// CreatePalace saves a new palace after validating it.
func (s *StructureStore) CreatePalace(ctx context.Context, palace *domain.Palace) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := palace.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.palaces[palace.ID]; exists {
		return store.ErrDuplicate
	}

	clone := *palace
	s.palaces[palace.ID] = &clone
	return nil
}

// ListRooms retrieves the rooms of a palace ordered by creation time.
func (s *StructureStore) ListRooms(ctx context.Context, palaceID uuid.UUID) ([]*domain.Room, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Room, 0)
	for _, room := range s.rooms {
		if room.PalaceID == palaceID {
			clone := *room
			result = append(result, &clone)
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

// CreateRoom saves a new room after validating it.
func (s *StructureStore) CreateRoom(ctx context.Context, room *domain.Room) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := room.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *room
	s.rooms[room.ID] = &clone
	return nil
}

// CreateMemoryNode saves a new memory node after validating it.
func (s *StructureStore) CreateMemoryNode(ctx context.Context, node *domain.MemoryNode) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := node.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *node
	if node.SourceNoteID != nil {
		source := *node.SourceNoteID
		clone.SourceNoteID = &source
	}
	s.memoryNodes[node.ID] = &clone
	return nil
}

// CreatePalaceNode saves a new palace node after validating it.
func (s *StructureStore) CreatePalaceNode(ctx context.Context, node *domain.PalaceNode) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	if err := node.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *node
	s.palaceNodes[node.ID] = &clone
	return nil
}

// DetachMemoryNodeSource nulls the source reference of every memory node
// snapshotted from the given note.
func (s *StructureStore) DetachMemoryNodeSource(ctx context.Context, noteID uuid.UUID) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	detached := 0
	for _, node := range s.memoryNodes {
		if node.SourceNoteID != nil && *node.SourceNoteID == noteID {
			node.SourceNoteID = nil
			detached++
		}
	}

	return detached, nil
}

// DeleteMemoryNodesBySource removes every memory node snapshotted from the
// given note, along with their palace placements.
func (s *StructureStore) DeleteMemoryNodesBySource(ctx context.Context, noteID uuid.UUID) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, node := range s.memoryNodes {
		if node.SourceNoteID != nil && *node.SourceNoteID == noteID {
			delete(s.memoryNodes, id)
			deleted++

			for placementID, placement := range s.palaceNodes {
				if placement.MemoryNodeID == id {
					delete(s.palaceNodes, placementID)
				}
			}
		}
	}

	return deleted, nil
}

// ListOrphanMemoryNodes retrieves the user's memory nodes whose source
// note has been deleted.
func (s *StructureStore) ListOrphanMemoryNodes(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryNode, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MemoryNode, 0)
	for _, node := range s.memoryNodes {
		if node.UserID == userID && node.Orphaned() {
			clone := *node
			result = append(result, &clone)
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

// WithTx returns the store itself; in-memory operations are atomic.
func (s *StructureStore) WithTx(_ *sql.Tx) store.StructureStore {
	return s
}
