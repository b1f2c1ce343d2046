package index

import (
	"testing"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexedNote(t *testing.T, tags []string, conceptID, courseID *uuid.UUID) *domain.Note {
	t.Helper()
	note, err := domain.NewNote(uuid.New(), "Indexed note", "content", domain.NoteTypeFleeting)
	require.NoError(t, err)
	note.Tags = tags
	note.ConceptID = conceptID
	note.CourseID = courseID
	return note
}

func TestApplyCreateAndDelete(t *testing.T) {
	t.Parallel()
	idx := New()

	courseID := uuid.New()
	note := newIndexedNote(t, []string{"biology", "cells"}, nil, &courseID)

	idx.Apply(nil, note)

	tagged := idx.NotesWithAllTags([]string{"biology"})
	assert.Contains(t, tagged, note.ID)
	assert.Contains(t, idx.NotesForCourse(courseID), note.ID)

	idx.Apply(note, nil)
	assert.Empty(t, idx.NotesWithAllTags([]string{"biology"}))
	assert.Empty(t, idx.NotesForCourse(courseID))
}

func TestApplyUpdateMovesEntries(t *testing.T) {
	t.Parallel()
	idx := New()

	before := newIndexedNote(t, []string{"chemistry"}, nil, nil)
	idx.Apply(nil, before)

	after := before.Clone()
	after.Tags = []string{"physics"}
	idx.Apply(before, after)

	assert.Empty(t, idx.NotesWithAllTags([]string{"chemistry"}))
	assert.Contains(t, idx.NotesWithAllTags([]string{"physics"}), after.ID)
}

func TestNotesWithAllTagsIntersection(t *testing.T) {
	t.Parallel()
	idx := New()

	both := newIndexedNote(t, []string{"biology", "exam"}, nil, nil)
	onlyBio := newIndexedNote(t, []string{"biology"}, nil, nil)
	idx.Apply(nil, both)
	idx.Apply(nil, onlyBio)

	result := idx.NotesWithAllTags([]string{"biology", "exam"})
	require.Len(t, result, 1)
	assert.Contains(t, result, both.ID)

	// Commutative: order of tags does not matter.
	swapped := idx.NotesWithAllTags([]string{"exam", "biology"})
	assert.Equal(t, result, swapped)

	// Intersection is a subset of any single-tag result.
	bioOnly := idx.NotesWithAllTags([]string{"biology"})
	for id := range result {
		assert.Contains(t, bioOnly, id)
	}

	// Unknown tag empties the intersection.
	assert.Empty(t, idx.NotesWithAllTags([]string{"biology", "astronomy"}))

	// No tags means no constraint.
	assert.Nil(t, idx.NotesWithAllTags(nil))
}

func TestRebuild(t *testing.T) {
	t.Parallel()
	idx := New()

	stale := newIndexedNote(t, []string{"stale"}, nil, nil)
	idx.Apply(nil, stale)

	conceptID := uuid.New()
	fresh := newIndexedNote(t, []string{"fresh"}, &conceptID, nil)
	idx.Rebuild([]*domain.Note{fresh})

	assert.Empty(t, idx.NotesWithAllTags([]string{"stale"}))
	assert.Contains(t, idx.NotesWithAllTags([]string{"fresh"}), fresh.ID)
	assert.Contains(t, idx.NotesForConcept(conceptID), fresh.ID)
	assert.ElementsMatch(t, []string{"fresh"}, idx.Tags())
}

func TestReturnedSetsAreCopies(t *testing.T) {
	t.Parallel()
	idx := New()

	note := newIndexedNote(t, []string{"biology"}, nil, nil)
	idx.Apply(nil, note)

	set := idx.NotesWithAllTags([]string{"biology"})
	delete(set, note.ID)

	assert.Contains(t, idx.NotesWithAllTags([]string{"biology"}), note.ID)
}
