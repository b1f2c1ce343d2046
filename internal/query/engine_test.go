package query

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine *Engine
	notes  []*domain.Note
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	userID := uuid.New()
	courseA := uuid.New()
	courseB := uuid.New()
	now := time.Now().UTC()

	build := func(title, content string, noteType domain.NoteType, tags []string, courseID *uuid.UUID, retention float64, age time.Duration) *domain.Note {
		note, err := domain.NewNote(userID, title, content, noteType)
		require.NoError(t, err)
		note.Tags = tags
		note.CourseID = courseID
		note.Retention = retention
		note.UpdatedAt = now.Add(-age)
		return note
	}

	notes := []*domain.Note{
		build("Mitosis overview", "Cell division phases", domain.NoteTypeFleeting, []string{"biology", "exam"}, &courseA, 0.2, 3*time.Hour),
		build("Bayesian networks", "Probability and inference", domain.NoteTypePermanent, []string{"statistics"}, &courseB, 0.75, time.Hour),
		build("Meiosis essay", "Cell division in gametes", domain.NoteTypeLiterature, []string{"biology"}, &courseA, 0.5, 2*time.Hour),
	}

	conceptID := uuid.New()
	notes[1].ConceptID = &conceptID

	idx := index.New()
	idx.Rebuild(notes)

	return &fixture{engine: New(idx), notes: notes}
}

func TestApplyTypeFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.engine.Apply(f.notes, Filter{Type: "fleeting"})
	require.Len(t, result, 1)
	assert.Equal(t, "Mitosis overview", result[0].Title)

	// "all" and empty behave identically.
	assert.Len(t, f.engine.Apply(f.notes, Filter{Type: TypeAll}), 3)
	assert.Len(t, f.engine.Apply(f.notes, Filter{}), 3)
}

func TestApplyTextSearch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// Case-insensitive, matches title or content.
	result := f.engine.Apply(f.notes, Filter{Query: "CELL DIVISION"})
	require.Len(t, result, 2)

	result = f.engine.Apply(f.notes, Filter{Query: "bayesian"})
	require.Len(t, result, 1)
	assert.Equal(t, "Bayesian networks", result[0].Title)
}

func TestApplyTagFilterCommutative(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ab := f.engine.Apply(f.notes, Filter{Tags: []string{"biology", "exam"}})
	ba := f.engine.Apply(f.notes, Filter{Tags: []string{"exam", "biology"}})
	assert.Equal(t, ab, ba)

	// {A,B} result is a subset of {A}.
	a := f.engine.Apply(f.notes, Filter{Tags: []string{"biology"}})
	for _, note := range ab {
		assert.Contains(t, a, note)
	}
	require.Len(t, ab, 1)
	assert.Equal(t, "Mitosis overview", ab[0].Title)
}

func TestApplyCourseFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	courseA := f.notes[0].CourseID
	result := f.engine.Apply(f.notes, Filter{CourseID: courseA})
	assert.Len(t, result, 2)
}

func TestApplyConceptFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.engine.Apply(f.notes, Filter{ConceptID: f.notes[1].ConceptID})
	require.Len(t, result, 1)
	assert.Equal(t, "Bayesian networks", result[0].Title)

	unknown := uuid.New()
	assert.Empty(t, f.engine.Apply(f.notes, Filter{ConceptID: &unknown}))
}

func TestApplyCombinedFiltersPreserveOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.engine.Apply(f.notes, Filter{Tags: []string{"biology"}})
	require.Len(t, result, 2)
	// Filtering never reorders: store order is preserved.
	assert.Equal(t, "Mitosis overview", result[0].Title)
	assert.Equal(t, "Meiosis essay", result[1].Title)
}

func TestApplySorts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	byRecency := f.engine.Apply(f.notes, Filter{Sort: SortRecency})
	require.Len(t, byRecency, 3)
	assert.Equal(t, "Bayesian networks", byRecency[0].Title)

	byRetention := f.engine.Apply(f.notes, Filter{Sort: SortRetention})
	require.Len(t, byRetention, 3)
	assert.Equal(t, 0.75, byRetention[0].Retention)
	assert.Equal(t, 0.2, byRetention[2].Retention)

	// The input slice order is untouched.
	assert.Equal(t, "Mitosis overview", f.notes[0].Title)
}
