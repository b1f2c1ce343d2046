package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
)

// StructureStore defines the interface for memory structure persistence:
// the structure records themselves plus the palace hierarchy and memory
// nodes they are built from.
type StructureStore interface {
	// CreateStructure saves a new memory structure record.
	// Returns validation errors from the domain MemoryStructure if data is invalid.
	CreateStructure(ctx context.Context, structure *domain.MemoryStructure) error

	// GetStructure retrieves a memory structure by its unique ID.
	// Returns ErrStructureNotFound if the structure does not exist.
	GetStructure(ctx context.Context, id uuid.UUID) (*domain.MemoryStructure, error)

	// ListStructuresByUser retrieves all memory structures owned by the
	// given user. Returns an empty slice when the user has none.
	ListStructuresByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryStructure, error)

	// UpdateStructure saves changes to an existing memory structure.
	// Returns ErrStructureNotFound if the structure does not exist.
	UpdateStructure(ctx context.Context, structure *domain.MemoryStructure) error

	// GetPalaceForCourse retrieves the user's palace for the given course.
	// Returns ErrPalaceNotFound if no such palace exists yet.
	GetPalaceForCourse(ctx context.Context, userID, courseID uuid.UUID) (*domain.Palace, error)

	// CreatePalace saves a new palace.
	CreatePalace(ctx context.Context, palace *domain.Palace) error

	// ListRooms retrieves the rooms of a palace ordered by creation time.
	ListRooms(ctx context.Context, palaceID uuid.UUID) ([]*domain.Room, error)

	// CreateRoom saves a new room inside a palace.
	CreateRoom(ctx context.Context, room *domain.Room) error

	// CreateMemoryNode saves a new memory node snapshot.
	CreateMemoryNode(ctx context.Context, node *domain.MemoryNode) error

	// CreatePalaceNode places a memory node at a location inside a room.
	CreatePalaceNode(ctx context.Context, node *domain.PalaceNode) error

	// DetachMemoryNodeSource nulls the source reference of every memory
	// node snapshotted from the given note, leaving the nodes in place.
	// Returns the number of nodes detached.
	DetachMemoryNodeSource(ctx context.Context, noteID uuid.UUID) (int, error)

	// DeleteMemoryNodesBySource removes every memory node snapshotted from
	// the given note, along with their palace placements.
	// Returns the number of nodes deleted.
	DeleteMemoryNodesBySource(ctx context.Context, noteID uuid.UUID) (int, error)

	// ListOrphanMemoryNodes retrieves the user's memory nodes whose source
	// note has been deleted.
	ListOrphanMemoryNodes(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryNode, error)

	// WithTx returns a new StructureStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) StructureStore
}
