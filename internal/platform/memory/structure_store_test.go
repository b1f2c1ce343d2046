package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedMemoryNode(t *testing.T, s *StructureStore, userID, noteID uuid.UUID) *domain.MemoryNode {
	t.Helper()
	node, err := domain.NewMemoryNode(userID, noteID, "snapshot content", "desc", 0)
	require.NoError(t, err)
	require.NoError(t, s.CreateMemoryNode(context.Background(), node))
	return node
}

func TestStructureStoreCRUD(t *testing.T) {
	t.Parallel()
	s := NewStructureStore()
	ctx := context.Background()

	userID := uuid.New()
	structure, err := domain.NewMemoryStructure(userID, "Biology palace", domain.StructureMemoryPalace, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateStructure(ctx, structure))

	got, err := s.GetStructure(ctx, structure.ID)
	require.NoError(t, err)
	assert.Equal(t, "Biology palace", got.Name)

	got.NodeCount = 3
	got.Touch()
	require.NoError(t, s.UpdateStructure(ctx, got))

	listed, err := s.ListStructuresByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 3, listed[0].NodeCount)

	_, err = s.GetStructure(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrStructureNotFound)
}

func TestStructureStorePalaceLookup(t *testing.T) {
	t.Parallel()
	s := NewStructureStore()
	ctx := context.Background()

	userID := uuid.New()
	courseID := uuid.New()

	_, err := s.GetPalaceForCourse(ctx, userID, courseID)
	assert.ErrorIs(t, err, store.ErrPalaceNotFound)

	palace, err := domain.NewPalace(userID, "Organic chemistry", &courseID)
	require.NoError(t, err)
	require.NoError(t, s.CreatePalace(ctx, palace))

	found, err := s.GetPalaceForCourse(ctx, userID, courseID)
	require.NoError(t, err)
	assert.Equal(t, palace.ID, found.ID)

	// Another user's palace for the same course stays invisible.
	_, err = s.GetPalaceForCourse(ctx, uuid.New(), courseID)
	assert.ErrorIs(t, err, store.ErrPalaceNotFound)
}

func TestStructureStoreDetachMemoryNodeSource(t *testing.T) {
	t.Parallel()
	s := NewStructureStore()
	ctx := context.Background()

	userID := uuid.New()
	noteID := uuid.New()
	node := storedMemoryNode(t, s, userID, noteID)
	storedMemoryNode(t, s, userID, uuid.New())

	detached, err := s.DetachMemoryNodeSource(ctx, noteID)
	require.NoError(t, err)
	assert.Equal(t, 1, detached)

	orphans, err := s.ListOrphanMemoryNodes(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, node.ID, orphans[0].ID)
	assert.True(t, orphans[0].Orphaned())
	assert.Equal(t, "snapshot content", orphans[0].Content, "detached node keeps its snapshot")
}

func TestStructureStoreDeleteMemoryNodesBySource(t *testing.T) {
	t.Parallel()
	s := NewStructureStore()
	ctx := context.Background()

	userID := uuid.New()
	noteID := uuid.New()
	node := storedMemoryNode(t, s, userID, noteID)

	palace, err := domain.NewPalace(userID, "History", nil)
	require.NoError(t, err)
	require.NoError(t, s.CreatePalace(ctx, palace))
	room, err := domain.NewRoom(palace.ID, "Entrance hall")
	require.NoError(t, err)
	require.NoError(t, s.CreateRoom(ctx, room))
	placement, err := domain.NewPalaceNode(room.ID, node.ID, "by the window")
	require.NoError(t, err)
	require.NoError(t, s.CreatePalaceNode(ctx, placement))

	deleted, err := s.DeleteMemoryNodesBySource(ctx, noteID)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	orphans, err := s.ListOrphanMemoryNodes(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, orphans, "cascade removes the node entirely")
	assert.Empty(t, s.palaceNodes, "placements go with their node")
}
