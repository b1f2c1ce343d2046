package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredNote(t *testing.T, s *NoteStore, userID uuid.UUID, title string) *domain.Note {
	t.Helper()
	note, err := domain.NewNote(userID, title, "content for "+title, domain.NoteTypeFleeting)
	require.NoError(t, err)
	note.Retention = 0.2
	require.NoError(t, s.Create(context.Background(), note))
	return note
}

func TestNoteStoreCreateAndGet(t *testing.T) {
	t.Parallel()
	s := NewNoteStore()
	ctx := context.Background()

	note := newStoredNote(t, s, uuid.New(), "Photosynthesis")

	got, err := s.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.Title, got.Title)
	assert.Equal(t, 0, got.Version)

	// Duplicate ID is rejected.
	err = s.Create(ctx, note)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNoteNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestNoteStoreSnapshotIsolation(t *testing.T) {
	t.Parallel()
	s := NewNoteStore()
	ctx := context.Background()

	note := newStoredNote(t, s, uuid.New(), "Isolation")

	// Mutating the returned copy must not leak into the store.
	got, err := s.GetByID(ctx, note.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.Tags = append(got.Tags, "leaked")

	fresh, err := s.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Isolation", fresh.Title)
	assert.NotContains(t, fresh.Tags, "leaked")
}

func TestNoteStoreUpdateVersioning(t *testing.T) {
	t.Parallel()
	s := NewNoteStore()
	ctx := context.Background()

	note := newStoredNote(t, s, uuid.New(), "Versioned")

	updated := note.Clone()
	updated.Content = "first edit"
	require.NoError(t, s.Update(ctx, updated, 0))
	assert.Equal(t, 1, updated.Version, "committed version is reflected back")

	// A second writer holding the original version must conflict.
	stale := note.Clone()
	stale.Content = "second edit from stale copy"
	err := s.Update(ctx, stale, 0)
	assert.ErrorIs(t, err, store.ErrVersionConflict)
	assert.True(t, store.IsConflictError(err))

	// The conflicting write changed nothing.
	current, err := s.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "first edit", current.Content)
	assert.Equal(t, 1, current.Version)
}

func TestNoteStoreDelete(t *testing.T) {
	t.Parallel()
	s := NewNoteStore()
	ctx := context.Background()

	note := newStoredNote(t, s, uuid.New(), "Doomed")

	require.NoError(t, s.Delete(ctx, note.ID))

	_, err := s.GetByID(ctx, note.ID)
	assert.ErrorIs(t, err, store.ErrNoteNotFound)

	err = s.Delete(ctx, note.ID)
	assert.ErrorIs(t, err, store.ErrNoteNotFound)
}

func TestNoteStoreListByUser(t *testing.T) {
	t.Parallel()
	s := NewNoteStore()
	ctx := context.Background()

	owner := uuid.New()
	other := uuid.New()
	first := newStoredNote(t, s, owner, "First")
	second := newStoredNote(t, s, owner, "Second")
	newStoredNote(t, s, other, "Elsewhere")

	notes, err := s.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	ids := []uuid.UUID{notes[0].ID, notes[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)

	empty, err := s.ListByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNoteStoreClearConcept(t *testing.T) {
	t.Parallel()
	s := NewNoteStore()
	ctx := context.Background()

	conceptID := uuid.New()
	otherConcept := uuid.New()
	owner := uuid.New()

	tagged := newStoredNote(t, s, owner, "Tagged")
	tagged.ConceptID = &conceptID
	require.NoError(t, s.Update(ctx, tagged, tagged.Version))

	kept := newStoredNote(t, s, owner, "Kept")
	kept.ConceptID = &otherConcept
	require.NoError(t, s.Update(ctx, kept, kept.Version))

	cleared, err := s.ClearConcept(ctx, conceptID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{tagged.ID}, cleared)

	got, err := s.GetByID(ctx, tagged.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ConceptID)
	assert.Equal(t, tagged.Version, got.Version, "clearing does not bump the version")

	untouched, err := s.GetByID(ctx, kept.ID)
	require.NoError(t, err)
	require.NotNil(t, untouched.ConceptID)
	assert.Equal(t, otherConcept, *untouched.ConceptID)

	empty, err := s.ClearConcept(ctx, conceptID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNoteStoreExpiredContext(t *testing.T) {
	t.Parallel()
	s := NewNoteStore()

	note := newStoredNote(t, s, uuid.New(), "Deadline")

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := s.GetByID(ctx, note.ID)
	assert.ErrorIs(t, err, store.ErrTimeout)
	assert.True(t, store.IsTimeoutError(err))
}
