package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/domain/lattice"
	"github.com/noetic/noospace-api/internal/domain/retention"
	"github.com/noetic/noospace-api/internal/events"
	"github.com/noetic/noospace-api/internal/index"
	"github.com/noetic/noospace-api/internal/query"
	"github.com/noetic/noospace-api/internal/store"
)

// CreateNoteInput carries the fields for a new note.
type CreateNoteInput struct {
	Title          string
	Content        string
	Type           domain.NoteType
	Tags           []string
	ConceptID      *uuid.UUID
	CourseID       *uuid.UUID
	RelatedNoteIDs []uuid.UUID
}

// UpdateNoteInput carries a content edit. Nil fields are left unchanged.
type UpdateNoteInput struct {
	Title          *string
	Content        *string
	Tags           []string
	ConceptID      *uuid.UUID
	CourseID       *uuid.UUID
	RelatedNoteIDs []uuid.UUID

	// SetConcept and SetCourse distinguish "leave unchanged" from "clear".
	SetConcept bool
	SetCourse  bool
	SetRelated bool
	SetTags    bool
}

// NoteService provides the note lifecycle operations.
type NoteService interface {
	// CreateNote creates a note with lattice-seeded retention.
	CreateNote(ctx context.Context, userID uuid.UUID, input CreateNoteInput) (*domain.Note, error)

	// GetNote retrieves one of the user's notes with freshly decayed
	// retention.
	GetNote(ctx context.Context, userID, noteID uuid.UUID) (*domain.Note, error)

	// ListNotes lists the user's notes through the query engine, with
	// freshly decayed retention and region.
	ListNotes(ctx context.Context, userID uuid.UUID, filter query.Filter) ([]*domain.Note, error)

	// ListTags lists the distinct indexed tags in lexical order.
	ListTags(ctx context.Context) ([]string, error)

	// PromoteNote advances a note one lattice step. expectedVersion is the
	// version the caller read; a mismatch surfaces ErrConflict without any
	// automatic retry, since the transition decision was made against the
	// read version.
	PromoteNote(ctx context.Context, userID, noteID uuid.UUID, to domain.NoteType, expectedVersion int) (*domain.Note, error)

	// UpdateNote applies a content edit, retrying version conflicts and
	// storage timeouts up to the configured budget.
	UpdateNote(ctx context.Context, userID, noteID uuid.UUID, input UpdateNoteInput) (*domain.Note, error)

	// DeleteNote removes a note, unindexes it and applies the orphan
	// policy to memory nodes built from it.
	DeleteNote(ctx context.Context, userID, noteID uuid.UUID) error
}

// Orphan policies for memory nodes whose source note is deleted.
const (
	OrphanPolicyKeep    = "keep"
	OrphanPolicyCascade = "cascade"
)

// NoteServiceConfig tunes the note service.
type NoteServiceConfig struct {
	// OrphanPolicy is OrphanPolicyKeep or OrphanPolicyCascade.
	OrphanPolicy string

	// ConflictRetries bounds automatic retries of content edits that hit a
	// version conflict or a storage timeout.
	ConflictRetries int
}

// noteServiceImpl implements the NoteService interface.
type noteServiceImpl struct {
	noteStore      store.NoteStore
	structureStore store.StructureStore
	txRunner       TransactionRunner
	retention      retention.Service
	index          *index.Index
	engine         *query.Engine
	eventEmitter   events.EventEmitter
	cfg            NoteServiceConfig
	logger         *slog.Logger
	now            func() time.Time
}

// NewNoteService creates a new NoteService.
// It returns an error if any of the required dependencies are nil.
func NewNoteService(
	noteStore store.NoteStore,
	structureStore store.StructureStore,
	txRunner TransactionRunner,
	retentionSvc retention.Service,
	idx *index.Index,
	engine *query.Engine,
	eventEmitter events.EventEmitter,
	cfg NoteServiceConfig,
	logger *slog.Logger,
) (NoteService, error) {
	if noteStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "noteStore cannot be nil"}
	}
	if structureStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "structureStore cannot be nil"}
	}
	if txRunner == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "txRunner cannot be nil"}
	}
	if retentionSvc == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "retention service cannot be nil"}
	}
	if idx == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "index cannot be nil"}
	}
	if engine == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "query engine cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}

	if cfg.OrphanPolicy == "" {
		cfg.OrphanPolicy = OrphanPolicyKeep
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &noteServiceImpl{
		noteStore:      noteStore,
		structureStore: structureStore,
		txRunner:       txRunner,
		retention:      retentionSvc,
		index:          idx,
		engine:         engine,
		eventEmitter:   eventEmitter,
		cfg:            cfg,
		logger:         logger.With("component", "note_service"),
		now:            func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateNote implements NoteService.CreateNote.
func (s *noteServiceImpl) CreateNote(
	ctx context.Context,
	userID uuid.UUID,
	input CreateNoteInput,
) (*domain.Note, error) {
	note, err := domain.NewNote(userID, input.Title, input.Content, input.Type)
	if err != nil {
		s.logger.Warn("invalid note input",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("create_note", "invalid note input",
			errors.Join(ErrValidation, err))
	}

	note.Tags = normalizeTags(input.Tags)
	note.ConceptID = input.ConceptID
	note.CourseID = input.CourseID
	if len(input.RelatedNoteIDs) > 0 {
		if err := note.SetRelatedNotes(input.RelatedNoteIDs); err != nil {
			return nil, NewServiceError("create_note", "invalid related notes",
				errors.Join(ErrValidation, err))
		}
	}

	// Retention starts at the type's baseline exactly; region follows.
	seed, err := s.retention.Seed(note.Type)
	if err != nil {
		return nil, NewServiceError("create_note", "failed to seed retention", err)
	}
	note.Retention = seed
	note.Region = s.retention.RegionFor(seed)

	if err := s.noteStore.Create(ctx, note); err != nil {
		s.logger.Error("failed to create note",
			"error", err,
			"user_id", userID,
			"note_id", note.ID)
		return nil, NewServiceError("create_note", "failed to save note", err)
	}

	s.index.Apply(nil, note)
	s.emitMutation(ctx, userID, note.ID, events.MutationCreate)

	s.logger.Info("note created",
		"note_id", note.ID,
		"user_id", userID,
		"type", note.Type,
		"retention", note.Retention)

	return note, nil
}

// GetNote implements NoteService.GetNote.
func (s *noteServiceImpl) GetNote(ctx context.Context, userID, noteID uuid.UUID) (*domain.Note, error) {
	note, err := s.ownedNote(ctx, userID, noteID)
	if err != nil {
		return nil, NewServiceError("get_note", "failed to retrieve note", err)
	}

	s.refreshRetention(note)
	return note, nil
}

// ListNotes implements NoteService.ListNotes.
func (s *noteServiceImpl) ListNotes(
	ctx context.Context,
	userID uuid.UUID,
	filter query.Filter,
) ([]*domain.Note, error) {
	notes, err := s.noteStore.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list notes",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("list_notes", "failed to list notes", err)
	}

	// Decay is a pure function of idle time; recompute at read time so
	// the list reflects the current scores.
	for _, note := range notes {
		s.refreshRetention(note)
	}

	return s.engine.Apply(notes, filter), nil
}

// ListTags implements NoteService.ListTags.
func (s *noteServiceImpl) ListTags(_ context.Context) ([]string, error) {
	return s.index.Tags(), nil
}

// PromoteNote implements NoteService.PromoteNote.
func (s *noteServiceImpl) PromoteNote(
	ctx context.Context,
	userID, noteID uuid.UUID,
	to domain.NoteType,
	expectedVersion int,
) (*domain.Note, error) {
	note, err := s.ownedNote(ctx, userID, noteID)
	if err != nil {
		return nil, NewServiceError("promote_note", "failed to retrieve note", err)
	}

	if err := lattice.ValidatePromotion(note.Type, to); err != nil {
		s.logger.Warn("invalid promotion",
			"note_id", noteID,
			"from", note.Type,
			"to", to)
		return nil, err
	}

	before := note.Clone()
	note.Type = to
	note.Retention = lattice.ReseedFloor(note.Retention, to)
	note.Region = s.retention.RegionFor(note.Retention)
	note.UpdatedAt = s.now()

	// Promotions are never auto-retried on conflict: the transition was
	// validated against the version the caller read.
	if err := s.noteStore.Update(ctx, note, expectedVersion); err != nil {
		s.logger.Warn("failed to promote note",
			"error", err,
			"note_id", noteID,
			"to", to)
		return nil, NewServiceError("promote_note", "failed to save promotion", err)
	}

	s.index.Apply(before, note)
	s.emitMutation(ctx, userID, noteID, events.MutationPromote)

	s.logger.Info("note promoted",
		"note_id", noteID,
		"from", before.Type,
		"to", to,
		"retention", note.Retention)

	return note, nil
}

// UpdateNote implements NoteService.UpdateNote.
// Version conflicts and storage timeouts are retried by re-fetching and
// reapplying the edit, up to the configured budget.
func (s *noteServiceImpl) UpdateNote(
	ctx context.Context,
	userID, noteID uuid.UUID,
	input UpdateNoteInput,
) (*domain.Note, error) {
	var lastErr error

	for attempt := 0; attempt <= s.cfg.ConflictRetries; attempt++ {
		note, err := s.ownedNote(ctx, userID, noteID)
		if err != nil {
			return nil, NewServiceError("update_note", "failed to retrieve note", err)
		}

		before := note.Clone()
		if err := applyNoteEdit(note, input); err != nil {
			return nil, NewServiceError("update_note", "invalid note edit",
				errors.Join(ErrValidation, err))
		}
		note.UpdatedAt = s.now()

		err = s.noteStore.Update(ctx, note, before.Version)
		if err == nil {
			s.index.Apply(before, note)
			s.emitMutation(ctx, userID, noteID, events.MutationUpdate)

			s.logger.Info("note updated",
				"note_id", noteID,
				"version", note.Version,
				"attempts", attempt+1)
			return note, nil
		}

		lastErr = err
		if !store.IsConflictError(err) && !store.IsTimeoutError(err) {
			break
		}

		s.logger.Debug("retrying note update",
			"note_id", noteID,
			"attempt", attempt+1,
			"error", err)
	}

	s.logger.Warn("failed to update note",
		"error", lastErr,
		"note_id", noteID)
	return nil, NewServiceError("update_note", "failed to save note", lastErr)
}

// DeleteNote implements NoteService.DeleteNote.
func (s *noteServiceImpl) DeleteNote(ctx context.Context, userID, noteID uuid.UUID) error {
	note, err := s.ownedNote(ctx, userID, noteID)
	if err != nil {
		return NewServiceError("delete_note", "failed to retrieve note", err)
	}

	err = s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		notes := s.noteStore
		structures := s.structureStore
		if tx != nil {
			notes = notes.WithTx(tx)
			structures = structures.WithTx(tx)
		}

		if err := notes.Delete(ctx, noteID); err != nil {
			return err
		}

		// Memory nodes keep their snapshot by default; the structure
		// outlives the note. Cascade removes them with the note.
		switch s.cfg.OrphanPolicy {
		case OrphanPolicyCascade:
			deleted, err := structures.DeleteMemoryNodesBySource(ctx, noteID)
			if err != nil {
				return err
			}
			s.logger.Debug("cascade-deleted memory nodes",
				"note_id", noteID,
				"count", deleted)
		default:
			detached, err := structures.DetachMemoryNodeSource(ctx, noteID)
			if err != nil {
				return err
			}
			s.logger.Debug("detached memory nodes",
				"note_id", noteID,
				"count", detached)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("failed to delete note",
			"error", err,
			"note_id", noteID)
		return NewServiceError("delete_note", "failed to delete note", err)
	}

	s.index.Apply(note, nil)
	s.emitMutation(ctx, userID, noteID, events.MutationDelete)

	s.logger.Info("note deleted",
		"note_id", noteID,
		"user_id", userID,
		"orphan_policy", s.cfg.OrphanPolicy)
	return nil
}

// ownedNote fetches a note and checks ownership.
func (s *noteServiceImpl) ownedNote(ctx context.Context, userID, noteID uuid.UUID) (*domain.Note, error) {
	note, err := s.noteStore.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID {
		return nil, ErrNotOwned
	}
	return note, nil
}

// refreshRetention recomputes the note's decayed retention and region for
// display. The stored value is not touched.
func (s *noteServiceImpl) refreshRetention(note *domain.Note) {
	score := s.retention.NoteRetention(note, s.now())
	note.Retention = score
	note.Region = s.retention.RegionFor(score)
}

// emitMutation publishes a note mutation event. Emission failures are
// logged, not surfaced: consumers are advisory (cache invalidation).
func (s *noteServiceImpl) emitMutation(ctx context.Context, userID, noteID uuid.UUID, mutation string) {
	event, err := events.NewNoteMutatedEvent(userID, noteID, mutation)
	if err != nil {
		s.logger.Error("failed to build note mutation event",
			"error", err,
			"note_id", noteID)
		return
	}
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit note mutation event",
			"error", err,
			"note_id", noteID,
			"mutation", mutation)
	}
}

// applyNoteEdit mutates note according to input.
func applyNoteEdit(note *domain.Note, input UpdateNoteInput) error {
	title := note.Title
	content := note.Content
	if input.Title != nil {
		title = *input.Title
	}
	if input.Content != nil {
		content = *input.Content
	}
	if err := note.UpdateContent(title, content); err != nil {
		return err
	}

	if input.SetTags {
		note.Tags = normalizeTags(input.Tags)
	}
	if input.SetConcept {
		note.ConceptID = input.ConceptID
	}
	if input.SetCourse {
		note.CourseID = input.CourseID
	}
	if input.SetRelated {
		if err := note.SetRelatedNotes(input.RelatedNoteIDs); err != nil {
			return err
		}
	}

	return nil
}

// normalizeTags dedupes tags preserving first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
