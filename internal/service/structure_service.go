package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/domain/retention"
	"github.com/noetic/noospace-api/internal/index"
	"github.com/noetic/noospace-api/internal/store"
)

// Concept-map weight bounds. An unspecified weight takes the default; an
// explicit weight is clamped to the valid range.
const (
	defaultEdgeWeight = 0.7
	implicitWeightMin = 0.5
	implicitWeightMax = 0.9
)

// defaultRoomName is used for palace placements that name no room.
const defaultRoomName = "Main Hall"

// AssignStructureInput carries the parameters of a structure assignment.
type AssignStructureInput struct {
	Type domain.StructureType

	// Name labels the structure; defaults to the note title.
	Name string

	// Room and Location place the memory node for palace assignments.
	// Room defaults; Location is required for palaces.
	Room     string
	Location string

	// Weight is the concept-map edge weight. Nil means unspecified.
	Weight *float64
}

// StructureService assigns and lists memory structures and manages the
// concept graph behind concept maps.
type StructureService interface {
	// AssignStructure builds a memory structure of the given type for one
	// of the user's notes and stamps the note's mnemonic type. Palace
	// assignments for a course grow that course's existing palace
	// structure instead of creating a new one.
	AssignStructure(ctx context.Context, userID, noteID uuid.UUID, input AssignStructureInput) (*domain.MemoryStructure, error)

	// GetStructure retrieves one of the user's structures by ID.
	GetStructure(ctx context.Context, userID, structureID uuid.UUID) (*domain.MemoryStructure, error)

	// ListStructures lists the user's structures, optionally filtered by
	// course.
	ListStructures(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID) ([]*domain.MemoryStructure, error)

	// DeleteConcept removes one of the user's concepts together with every
	// edge touching it, and clears the reference from notes that carried
	// it.
	DeleteConcept(ctx context.Context, userID, conceptID uuid.UUID) error

	// ListOrphans lists the user's memory nodes whose source note has been
	// deleted.
	ListOrphans(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryNode, error)
}

// structureServiceImpl implements the StructureService interface.
type structureServiceImpl struct {
	noteStore      store.NoteStore
	conceptStore   store.ConceptStore
	structureStore store.StructureStore
	txRunner       TransactionRunner
	retention      retention.Service
	index          *index.Index
	logger         *slog.Logger
	now            func() time.Time
}

// NewStructureService creates a new StructureService.
func NewStructureService(
	noteStore store.NoteStore,
	conceptStore store.ConceptStore,
	structureStore store.StructureStore,
	txRunner TransactionRunner,
	retentionSvc retention.Service,
	idx *index.Index,
	logger *slog.Logger,
) (StructureService, error) {
	if noteStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "noteStore cannot be nil"}
	}
	if conceptStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "conceptStore cannot be nil"}
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
	if logger == nil {
		logger = slog.Default()
	}

	return &structureServiceImpl{
		noteStore:      noteStore,
		conceptStore:   conceptStore,
		structureStore: structureStore,
		txRunner:       txRunner,
		retention:      retentionSvc,
		index:          idx,
		logger:         logger.With("component", "structure_service"),
		now:            func() time.Time { return time.Now().UTC() },
	}, nil
}

// AssignStructure implements StructureService.AssignStructure.
// The structure record, its nodes and the note's mnemonic stamp commit as
// one transaction.
func (s *structureServiceImpl) AssignStructure(
	ctx context.Context,
	userID, noteID uuid.UUID,
	input AssignStructureInput,
) (*domain.MemoryStructure, error) {
	if !domain.IsValidStructureType(input.Type) {
		return nil, NewServiceError("assign_structure", "unknown structure type",
			errors.Join(ErrValidation, domain.ErrStructureTypeInvalid))
	}

	note, err := s.noteStore.GetByID(ctx, noteID)
	if err != nil {
		return nil, NewServiceError("assign_structure", "failed to retrieve note", err)
	}
	if note.UserID != userID {
		return nil, NewServiceError("assign_structure", "note not owned", ErrNotOwned)
	}

	name := input.Name
	if name == "" {
		name = note.Title
	}

	structure, err := domain.NewMemoryStructure(userID, name, input.Type, note.CourseID)
	if err != nil {
		return nil, NewServiceError("assign_structure", "invalid structure",
			errors.Join(ErrValidation, err))
	}

	err = s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		notes := s.noteStore
		concepts := s.conceptStore
		structures := s.structureStore
		if tx != nil {
			notes = notes.WithTx(tx)
			concepts = concepts.WithTx(tx)
			structures = structures.WithTx(tx)
		}

		// A course's palace keeps a single structure record; further
		// placements grow it rather than multiply it.
		if input.Type == domain.StructureMemoryPalace && note.CourseID != nil {
			existing, err := palaceStructureFor(ctx, structures, userID, *note.CourseID)
			if err != nil {
				return err
			}
			if existing != nil {
				structure = existing
			}
		}

		fresh := structure.NodeCount == 0

		switch input.Type {
		case domain.StructureStoryMethod:
			err = s.assignStory(ctx, notes, note, structure)
		case domain.StructureMemoryPalace:
			err = s.assignPalace(ctx, structures, note, structure, input)
		case domain.StructureConceptMap:
			err = s.assignConceptMap(ctx, notes, concepts, note, structure, input.Weight)
		}
		if err != nil {
			return err
		}

		// Assignment refreshes the note's region from current retention.
		score := s.retention.NoteRetention(note, s.now())
		structure.Region = s.retention.RegionFor(score)
		if fresh {
			if err := structures.CreateStructure(ctx, structure); err != nil {
				return err
			}
		} else {
			structure.Touch()
			if err := structures.UpdateStructure(ctx, structure); err != nil {
				return err
			}
		}

		mnemonic := input.Type
		note.MnemonicType = &mnemonic
		note.Region = structure.Region
		note.UpdatedAt = s.now()
		return notes.Update(ctx, note, note.Version)
	})
	if err != nil {
		s.logger.Warn("failed to assign structure",
			"error", err,
			"note_id", noteID,
			"type", input.Type)
		return nil, NewServiceError("assign_structure", "failed to assign structure", err)
	}

	s.logger.Info("structure assigned",
		"structure_id", structure.ID,
		"note_id", noteID,
		"type", input.Type,
		"nodes", structure.NodeCount,
		"connections", structure.ConnectionCount)

	return structure, nil
}

// assignStory records the note's related chain as a sequential story.
// Every chained note must exist; the chain has no branching, so the
// connection count is the chain length.
func (s *structureServiceImpl) assignStory(
	ctx context.Context,
	notes store.NoteStore,
	note *domain.Note,
	structure *domain.MemoryStructure,
) error {
	for _, relatedID := range note.RelatedNoteIDs {
		if _, err := notes.GetByID(ctx, relatedID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errors.Join(ErrValidation,
					errors.New("story chain references a missing note"))
			}
			return err
		}
	}

	structure.NodeCount = 1 + len(note.RelatedNoteIDs)
	structure.ConnectionCount = len(note.RelatedNoteIDs)
	return nil
}

// assignPalace places a snapshot of the note inside the user's palace for
// the note's course, reusing the palace and room when they already exist.
// The memory node is always fresh: repeated assignment of the same note
// yields a new snapshot at the new location.
func (s *structureServiceImpl) assignPalace(
	ctx context.Context,
	structures store.StructureStore,
	note *domain.Note,
	structure *domain.MemoryStructure,
	input AssignStructureInput,
) error {
	if input.Location == "" {
		return errors.Join(ErrValidation, domain.ErrPalaceNodeLocation)
	}

	palace, err := s.palaceFor(ctx, structures, note)
	if err != nil {
		return err
	}

	roomName := input.Room
	if roomName == "" {
		roomName = defaultRoomName
	}
	room, err := s.roomIn(ctx, structures, palace.ID, roomName)
	if err != nil {
		return err
	}

	memoryNode, err := domain.NewMemoryNode(note.UserID, note.ID, note.Content, note.Title, 0)
	if err != nil {
		return errors.Join(ErrValidation, err)
	}
	if err := structures.CreateMemoryNode(ctx, memoryNode); err != nil {
		return err
	}

	palaceNode, err := domain.NewPalaceNode(room.ID, memoryNode.ID, input.Location)
	if err != nil {
		return errors.Join(ErrValidation, err)
	}
	if err := structures.CreatePalaceNode(ctx, palaceNode); err != nil {
		return err
	}

	structure.NodeCount++
	return nil
}

// palaceStructureFor finds the user's palace structure for a course, or
// nil when no placement happened yet.
func palaceStructureFor(
	ctx context.Context,
	structures store.StructureStore,
	userID, courseID uuid.UUID,
) (*domain.MemoryStructure, error) {
	all, err := structures.ListStructuresByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, structure := range all {
		if structure.Type != domain.StructureMemoryPalace {
			continue
		}
		if structure.CourseID != nil && *structure.CourseID == courseID {
			return structure, nil
		}
	}
	return nil, nil
}

// palaceFor returns the user's palace for the note's course, creating it
// on first use. Notes without a course get a palace of their own since
// there is no course key to share.
func (s *structureServiceImpl) palaceFor(
	ctx context.Context,
	structures store.StructureStore,
	note *domain.Note,
) (*domain.Palace, error) {
	if note.CourseID != nil {
		palace, err := structures.GetPalaceForCourse(ctx, note.UserID, *note.CourseID)
		if err == nil {
			return palace, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	palace, err := domain.NewPalace(note.UserID, note.Title+" Palace", note.CourseID)
	if err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if err := structures.CreatePalace(ctx, palace); err != nil {
		return nil, err
	}
	return palace, nil
}

// roomIn returns the named room of a palace, creating it on first use.
func (s *structureServiceImpl) roomIn(
	ctx context.Context,
	structures store.StructureStore,
	palaceID uuid.UUID,
	name string,
) (*domain.Room, error) {
	rooms, err := structures.ListRooms(ctx, palaceID)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if room.Name == name {
			return room, nil
		}
	}

	room, err := domain.NewRoom(palaceID, name)
	if err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if err := structures.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// assignConceptMap upserts a weighted edge from the note's concept to the
// concept of each related note that carries a different one.
func (s *structureServiceImpl) assignConceptMap(
	ctx context.Context,
	notes store.NoteStore,
	concepts store.ConceptStore,
	note *domain.Note,
	structure *domain.MemoryStructure,
	weight *float64,
) error {
	if note.ConceptID == nil {
		return errors.Join(ErrValidation,
			errors.New("concept map requires a note with a concept"))
	}

	resolved := resolveEdgeWeight(weight)
	linked := make(map[uuid.UUID]struct{})

	for _, relatedID := range note.RelatedNoteIDs {
		related, err := notes.GetByID(ctx, relatedID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errors.Join(ErrValidation,
					errors.New("concept map references a missing note"))
			}
			return err
		}
		if related.ConceptID == nil || *related.ConceptID == *note.ConceptID {
			continue
		}
		if _, seen := linked[*related.ConceptID]; seen {
			continue
		}

		edge, err := domain.NewConceptEdge(*note.ConceptID, *related.ConceptID, resolved)
		if err != nil {
			return errors.Join(ErrValidation, err)
		}
		if err := concepts.UpsertEdge(ctx, edge); err != nil {
			return err
		}
		linked[*related.ConceptID] = struct{}{}
	}

	structure.NodeCount = 1 + len(linked)
	structure.ConnectionCount = len(linked)
	return nil
}

// GetStructure implements StructureService.GetStructure.
func (s *structureServiceImpl) GetStructure(
	ctx context.Context,
	userID, structureID uuid.UUID,
) (*domain.MemoryStructure, error) {
	structure, err := s.structureStore.GetStructure(ctx, structureID)
	if err != nil {
		return nil, NewServiceError("get_structure", "failed to retrieve structure", err)
	}
	if structure.UserID != userID {
		return nil, NewServiceError("get_structure", "structure not owned", ErrNotOwned)
	}
	return structure, nil
}

// DeleteConcept implements StructureService.DeleteConcept.
// The concept, its edges and the cleared note references commit as one
// transaction; the concept index drops the cleared notes afterwards.
func (s *structureServiceImpl) DeleteConcept(ctx context.Context, userID, conceptID uuid.UUID) error {
	concept, err := s.conceptStore.GetByID(ctx, conceptID)
	if err != nil {
		return NewServiceError("delete_concept", "failed to retrieve concept", err)
	}
	if concept.UserID != userID {
		return NewServiceError("delete_concept", "concept not owned", ErrNotOwned)
	}

	var cleared []*domain.Note
	err = s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		notes := s.noteStore
		concepts := s.conceptStore
		if tx != nil {
			notes = notes.WithTx(tx)
			concepts = concepts.WithTx(tx)
		}

		ids, err := notes.ClearConcept(ctx, conceptID)
		if err != nil {
			return err
		}
		cleared = cleared[:0]
		for _, id := range ids {
			note, err := notes.GetByID(ctx, id)
			if err != nil {
				return err
			}
			cleared = append(cleared, note)
		}

		return concepts.Delete(ctx, conceptID)
	})
	if err != nil {
		s.logger.Warn("failed to delete concept",
			"error", err,
			"concept_id", conceptID)
		return NewServiceError("delete_concept", "failed to delete concept", err)
	}

	for _, note := range cleared {
		before := *note
		ref := conceptID
		before.ConceptID = &ref
		s.index.Apply(&before, note)
	}

	s.logger.Info("concept deleted",
		"concept_id", conceptID,
		"notes_cleared", len(cleared))
	return nil
}

// ListStructures implements StructureService.ListStructures.
func (s *structureServiceImpl) ListStructures(
	ctx context.Context,
	userID uuid.UUID,
	courseID *uuid.UUID,
) ([]*domain.MemoryStructure, error) {
	structures, err := s.structureStore.ListStructuresByUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError("list_structures", "failed to list structures", err)
	}

	if courseID == nil {
		return structures, nil
	}

	filtered := make([]*domain.MemoryStructure, 0, len(structures))
	for _, structure := range structures {
		if structure.CourseID != nil && *structure.CourseID == *courseID {
			filtered = append(filtered, structure)
		}
	}
	return filtered, nil
}

// ListOrphans implements StructureService.ListOrphans.
func (s *structureServiceImpl) ListOrphans(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryNode, error) {
	nodes, err := s.structureStore.ListOrphanMemoryNodes(ctx, userID)
	if err != nil {
		return nil, NewServiceError("list_orphans", "failed to list orphan nodes", err)
	}
	return nodes, nil
}

// resolveEdgeWeight applies the weight rules: unspecified weights take the
// default clamped to the conservative band, explicit weights are clamped
// to the valid range.
func resolveEdgeWeight(weight *float64) float64 {
	if weight == nil {
		w := defaultEdgeWeight
		if w < implicitWeightMin {
			w = implicitWeightMin
		}
		if w > implicitWeightMax {
			w = implicitWeightMax
		}
		return w
	}

	w := *weight
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
