package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/domain/retention"
	"github.com/noetic/noospace-api/internal/platform/memory"
	"github.com/noetic/noospace-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSubmitter captures submitted tasks without executing them.
type recordingSubmitter struct {
	mu    sync.Mutex
	tasks []task.Task
}

func (s *recordingSubmitter) Submit(_ context.Context, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
	return nil
}

func (s *recordingSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func newProfileFixture(t *testing.T, debounce time.Duration) (ProfileService, *memory.NoteStore, *recordingSubmitter) {
	t.Helper()

	notes := memory.NewNoteStore()
	submitter := &recordingSubmitter{}
	svc, err := NewProfileService(notes, retention.NewDefaultService(), submitter, debounce, testLogger())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	return svc, notes, submitter
}

func seedNote(t *testing.T, notes *memory.NoteStore, userID uuid.UUID, noteType domain.NoteType) {
	t.Helper()

	note, err := domain.NewNote(userID, "note "+uuid.NewString(), "content", noteType)
	require.NoError(t, err)
	require.NoError(t, notes.Create(context.Background(), note))
}

func TestProfileEmptyCollection(t *testing.T) {
	t.Parallel()

	svc, _, _ := newProfileFixture(t, time.Hour)

	profile, err := svc.Profile(context.Background(), uuid.New(), false)
	require.NoError(t, err)
	assert.Zero(t, profile.NoteCount)
	assert.Zero(t, profile.RetentionScore)
	assert.Zero(t, profile.UnderstandingScore)
}

func TestProfileComputesAndCaches(t *testing.T) {
	t.Parallel()

	svc, notes, _ := newProfileFixture(t, time.Hour)
	userID := uuid.New()
	seedNote(t, notes, userID, domain.NoteTypePermanent)
	seedNote(t, notes, userID, domain.NoteTypeFleeting)

	first, err := svc.Profile(context.Background(), userID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.NoteCount)
	assert.Greater(t, first.RetentionScore, 0.0)

	// A new note without invalidation is invisible until forced.
	seedNote(t, notes, userID, domain.NoteTypeBridge)

	cached, err := svc.Profile(context.Background(), userID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.NoteCount)

	forced, err := svc.Profile(context.Background(), userID, true)
	require.NoError(t, err)
	assert.Equal(t, 3, forced.NoteCount)
}

func TestInvalidateDropsCacheAndDebouncesRecompute(t *testing.T) {
	t.Parallel()

	svc, notes, submitter := newProfileFixture(t, 30*time.Millisecond)
	userID := uuid.New()
	seedNote(t, notes, userID, domain.NoteTypePermanent)

	_, err := svc.Profile(context.Background(), userID, false)
	require.NoError(t, err)

	seedNote(t, notes, userID, domain.NoteTypeFleeting)
	for i := 0; i < 5; i++ {
		svc.Invalidate(context.Background(), userID)
	}

	// Cache is gone immediately: the next read recomputes.
	fresh, err := svc.Profile(context.Background(), userID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.NoteCount)

	// The burst collapses into a single background recompute.
	assert.Eventually(t, func() bool {
		return submitter.count() == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, submitter.count())
}

func TestRecomputeWarmsCache(t *testing.T) {
	t.Parallel()

	svc, notes, _ := newProfileFixture(t, time.Hour)
	userID := uuid.New()
	seedNote(t, notes, userID, domain.NoteTypeConsolidated)

	require.NoError(t, svc.Recompute(context.Background(), userID))

	profile, err := svc.Profile(context.Background(), userID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.NoteCount)
}

func TestProfileSynthesisWeighting(t *testing.T) {
	t.Parallel()

	svc, notes, _ := newProfileFixture(t, time.Hour)
	userID := uuid.New()
	seedNote(t, notes, userID, domain.NoteTypeFleeting)
	seedNote(t, notes, userID, domain.NoteTypeConsolidated)

	profile, err := svc.Profile(context.Background(), userID, true)
	require.NoError(t, err)

	// Fresh notes score at their baselines: retention weights by baseline
	// (0.2*0.2 + 0.9*0.9)/1.1, understanding weights the consolidated note
	// double (0.5*0.2 + 1.0*0.9)/1.5.
	assert.InDelta(t, 0.7727, profile.RetentionScore, 0.01)
	assert.InDelta(t, 0.6667, profile.UnderstandingScore, 0.01)
}

func TestNewProfileServiceValidation(t *testing.T) {
	t.Parallel()

	_, err := NewProfileService(nil, retention.NewDefaultService(), &recordingSubmitter{}, time.Second, testLogger())
	assert.Error(t, err)
}
