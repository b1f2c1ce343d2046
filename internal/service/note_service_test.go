package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/domain/lattice"
	"github.com/noetic/noospace-api/internal/domain/retention"
	"github.com/noetic/noospace-api/internal/events"
	"github.com/noetic/noospace-api/internal/index"
	"github.com/noetic/noospace-api/internal/platform/memory"
	"github.com/noetic/noospace-api/internal/query"
	"github.com/noetic/noospace-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingHandler collects emitted events for assertions.
type recordingHandler struct {
	mu     sync.Mutex
	events []*events.Event
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) mutations(t *testing.T) []string {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]string, 0, len(h.events))
	for _, event := range h.events {
		var payload events.NoteMutatedPayload
		require.NoError(t, event.UnmarshalPayload(&payload))
		result = append(result, payload.Mutation)
	}
	return result
}

type noteServiceFixture struct {
	svc        NoteService
	notes      *memory.NoteStore
	structures *memory.StructureStore
	idx        *index.Index
	handler    *recordingHandler
}

func newNoteServiceFixture(t *testing.T, cfg NoteServiceConfig) *noteServiceFixture {
	t.Helper()

	notes := memory.NewNoteStore()
	structures := memory.NewStructureStore()
	idx := index.New()
	handler := &recordingHandler{}
	emitter := events.NewInMemoryEventEmitter(testLogger())
	emitter.RegisterHandler(handler)

	svc, err := NewNoteService(
		notes,
		structures,
		NoopTransactionRunner{},
		retention.NewDefaultService(),
		idx,
		query.New(idx),
		emitter,
		cfg,
		testLogger(),
	)
	require.NoError(t, err)

	return &noteServiceFixture{
		svc:        svc,
		notes:      notes,
		structures: structures,
		idx:        idx,
		handler:    handler,
	}
}

func TestCreateNoteSeedsRetention(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{})
	userID := uuid.New()

	note, err := f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Cell Respiration",
		Content: "Mitochondria convert glucose into ATP.",
		Type:    domain.NoteTypeLiterature,
		Tags:    []string{"biology", "biology", "energy"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, note.Retention, 1e-9)
	assert.Equal(t, domain.RegionShortTerm, note.Region)
	assert.Equal(t, 1, note.Version)
	assert.Equal(t, []string{"biology", "energy"}, note.Tags)
	assert.Equal(t, []string{"create"}, f.handler.mutations(t))
}

func TestCreateNoteRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{})

	_, err := f.svc.CreateNote(context.Background(), uuid.New(), CreateNoteInput{
		Title: "no content",
		Type:  domain.NoteTypeFleeting,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetNoteOwnership(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{})
	owner := uuid.New()

	note, err := f.svc.CreateNote(context.Background(), owner, CreateNoteInput{
		Title:   "Private",
		Content: "mine alone",
		Type:    domain.NoteTypeFleeting,
	})
	require.NoError(t, err)

	_, err = f.svc.GetNote(context.Background(), uuid.New(), note.ID)
	assert.ErrorIs(t, err, ErrNotOwned)

	got, err := f.svc.GetNote(context.Background(), owner, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)
}

func TestGetNoteNotFound(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{})

	_, err := f.svc.GetNote(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPromoteNoteAdvancesAndReseeds(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{})
	userID := uuid.New()

	note, err := f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Krebs Cycle",
		Content: "citrate to oxaloacetate",
		Type:    domain.NoteTypeLiterature,
	})
	require.NoError(t, err)

	promoted, err := f.svc.PromoteNote(context.Background(), userID, note.ID,
		domain.NoteTypePermanent, note.Version)
	require.NoError(t, err)

	assert.Equal(t, domain.NoteTypePermanent, promoted.Type)
	assert.InDelta(t, 0.75, promoted.Retention, 1e-9)
	assert.Equal(t, domain.RegionLongTerm, promoted.Region)
	assert.Equal(t, 2, promoted.Version)
	assert.Equal(t, []string{"create", "promote"}, f.handler.mutations(t))
}

func TestPromoteNoteRejectsSkippedStep(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{})
	userID := uuid.New()

	note, err := f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Quick capture",
		Content: "raw thought",
		Type:    domain.NoteTypeFleeting,
	})
	require.NoError(t, err)

	_, err = f.svc.PromoteNote(context.Background(), userID, note.ID,
		domain.NoteTypePermanent, note.Version)
	assert.ErrorIs(t, err, lattice.ErrInvalidTransition)
}

func TestPromoteNoteRejectsDirectConsolidation(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{})
	userID := uuid.New()

	note, err := f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Enzyme kinetics",
		Content: "rate laws and inhibitors",
		Type:    domain.NoteTypeLiterature,
	})
	require.NoError(t, err)

	promoted, err := f.svc.PromoteNote(context.Background(), userID, note.ID,
		domain.NoteTypePermanent, note.Version)
	require.NoError(t, err)

	// Consolidation is reached from bridge by synthesis, never by a
	// promotion straight from permanent.
	_, err = f.svc.PromoteNote(context.Background(), userID, note.ID,
		domain.NoteTypeConsolidated, promoted.Version)
	assert.ErrorIs(t, err, lattice.ErrInvalidTransition)

	unchanged, err := f.svc.GetNote(context.Background(), userID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NoteTypePermanent, unchanged.Type)
}

func TestPromoteNoteTerminalTypeRejectsFurtherPromotion(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{ConflictRetries: 3})
	userID := uuid.New()

	note, err := f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Contested",
		Content: "two tabs, one note",
		Type:    domain.NoteTypePermanent,
	})
	require.NoError(t, err)

	promoted, err := f.svc.PromoteNote(context.Background(), userID, note.ID,
		domain.NoteTypeBridge, note.Version)
	require.NoError(t, err)

	// A second caller racing the first re-reads the note as bridge, which
	// is terminal.
	_, err = f.svc.PromoteNote(context.Background(), userID, note.ID,
		domain.NoteTypeConsolidated, promoted.Version)
	assert.ErrorIs(t, err, lattice.ErrInvalidTransition)
}

func TestPromoteNoteConflictNeverRetried(t *testing.T) {
	t.Parallel()

	notes := memory.NewNoteStore()
	flaky := &flakyNoteStore{NoteStore: notes, remaining: 1}
	idx := index.New()
	emitter := events.NewInMemoryEventEmitter(testLogger())

	svc, err := NewNoteService(
		flaky,
		memory.NewStructureStore(),
		NoopTransactionRunner{},
		retention.NewDefaultService(),
		idx,
		query.New(idx),
		emitter,
		NoteServiceConfig{ConflictRetries: 5},
		testLogger(),
	)
	require.NoError(t, err)

	userID := uuid.New()
	note, err := svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Racing",
		Content: "promoted from two tabs",
		Type:    domain.NoteTypeFleeting,
	})
	require.NoError(t, err)

	// One injected conflict is enough: promotions surface it even though
	// the retry budget would absorb it for content edits.
	_, err = svc.PromoteNote(context.Background(), userID, note.ID,
		domain.NoteTypeLiterature, note.Version)
	assert.ErrorIs(t, err, ErrConflict)
}

// flakyNoteStore fails the first n Update calls with a version conflict.
type flakyNoteStore struct {
	store.NoteStore
	mu        sync.Mutex
	remaining int
}

func (s *flakyNoteStore) Update(ctx context.Context, note *domain.Note, expectedVersion int) error {
	s.mu.Lock()
	fail := s.remaining > 0
	if fail {
		s.remaining--
	}
	s.mu.Unlock()

	if fail {
		return store.ErrVersionConflict
	}
	return s.NoteStore.Update(ctx, note, expectedVersion)
}

func TestUpdateNoteRetriesConflicts(t *testing.T) {
	t.Parallel()

	notes := memory.NewNoteStore()
	flaky := &flakyNoteStore{NoteStore: notes, remaining: 2}
	idx := index.New()
	emitter := events.NewInMemoryEventEmitter(testLogger())

	svc, err := NewNoteService(
		flaky,
		memory.NewStructureStore(),
		NoopTransactionRunner{},
		retention.NewDefaultService(),
		idx,
		query.New(idx),
		emitter,
		NoteServiceConfig{ConflictRetries: 3},
		testLogger(),
	)
	require.NoError(t, err)

	userID := uuid.New()
	note, err := svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Draft",
		Content: "first pass",
		Type:    domain.NoteTypeFleeting,
	})
	require.NoError(t, err)

	newContent := "second pass"
	updated, err := svc.UpdateNote(context.Background(), userID, note.ID, UpdateNoteInput{
		Content: &newContent,
	})
	require.NoError(t, err)
	assert.Equal(t, "second pass", updated.Content)
}

func TestUpdateNoteExhaustsRetries(t *testing.T) {
	t.Parallel()

	notes := memory.NewNoteStore()
	flaky := &flakyNoteStore{NoteStore: notes, remaining: 10}
	idx := index.New()
	emitter := events.NewInMemoryEventEmitter(testLogger())

	svc, err := NewNoteService(
		flaky,
		memory.NewStructureStore(),
		NoopTransactionRunner{},
		retention.NewDefaultService(),
		idx,
		query.New(idx),
		emitter,
		NoteServiceConfig{ConflictRetries: 2},
		testLogger(),
	)
	require.NoError(t, err)

	userID := uuid.New()
	note, err := svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Contended",
		Content: "busy note",
		Type:    domain.NoteTypeFleeting,
	})
	require.NoError(t, err)

	newContent := "never lands"
	_, err = svc.UpdateNote(context.Background(), userID, note.ID, UpdateNoteInput{
		Content: &newContent,
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateNoteReplacesTagsOnlyWhenSet(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{})
	userID := uuid.New()

	note, err := f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Tagged",
		Content: "has tags",
		Type:    domain.NoteTypeFleeting,
		Tags:    []string{"keep"},
	})
	require.NoError(t, err)

	title := "Tagged still"
	updated, err := f.svc.UpdateNote(context.Background(), userID, note.ID, UpdateNoteInput{
		Title: &title,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, updated.Tags)

	updated, err = f.svc.UpdateNote(context.Background(), userID, note.ID, UpdateNoteInput{
		Tags:    []string{"swapped"},
		SetTags: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"swapped"}, updated.Tags)
}

func TestDeleteNoteDetachesMemoryNodes(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{OrphanPolicy: OrphanPolicyKeep})
	userID := uuid.New()

	note, err := f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Placed",
		Content: "lives in a palace",
		Type:    domain.NoteTypePermanent,
	})
	require.NoError(t, err)

	node, err := domain.NewMemoryNode(userID, note.ID, note.Content, note.Title, 0)
	require.NoError(t, err)
	require.NoError(t, f.structures.CreateMemoryNode(context.Background(), node))

	require.NoError(t, f.svc.DeleteNote(context.Background(), userID, note.ID))

	_, err = f.svc.GetNote(context.Background(), userID, note.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	orphans, err := f.structures.ListOrphanMemoryNodes(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, note.Content, orphans[0].Content)
	assert.True(t, orphans[0].Orphaned())
}

func TestDeleteNoteCascadesMemoryNodes(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{OrphanPolicy: OrphanPolicyCascade})
	userID := uuid.New()

	note, err := f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Gone",
		Content: "cascades away",
		Type:    domain.NoteTypePermanent,
	})
	require.NoError(t, err)

	node, err := domain.NewMemoryNode(userID, note.ID, note.Content, note.Title, 0)
	require.NoError(t, err)
	require.NoError(t, f.structures.CreateMemoryNode(context.Background(), node))

	require.NoError(t, f.svc.DeleteNote(context.Background(), userID, note.ID))

	orphans, err := f.structures.ListOrphanMemoryNodes(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, orphans)
	assert.Equal(t, []string{"create", "delete"}, f.handler.mutations(t))
}

func TestListNotesFiltersThroughEngine(t *testing.T) {
	t.Parallel()

	f := newNoteServiceFixture(t, NoteServiceConfig{})
	userID := uuid.New()

	_, err := f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "Biology capture",
		Content: "enzymes",
		Type:    domain.NoteTypeFleeting,
		Tags:    []string{"biology"},
	})
	require.NoError(t, err)

	_, err = f.svc.CreateNote(context.Background(), userID, CreateNoteInput{
		Title:   "History capture",
		Content: "treaties",
		Type:    domain.NoteTypeFleeting,
		Tags:    []string{"history"},
	})
	require.NoError(t, err)

	listed, err := f.svc.ListNotes(context.Background(), userID, query.Filter{
		Tags: []string{"biology"},
	})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Biology capture", listed[0].Title)
}

func TestNewNoteServiceValidation(t *testing.T) {
	t.Parallel()

	idx := index.New()
	_, err := NewNoteService(
		nil,
		memory.NewStructureStore(),
		NoopTransactionRunner{},
		retention.NewDefaultService(),
		idx,
		query.New(idx),
		events.NewInMemoryEventEmitter(testLogger()),
		NoteServiceConfig{},
		testLogger(),
	)
	assert.Error(t, err)
}
