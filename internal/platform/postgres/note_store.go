package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/platform/logger"
	"github.com/noetic/noospace-api/internal/store"
)

// PostgresNoteStore implements the store.NoteStore interface
// using a PostgreSQL database as the storage backend. Tags and related
// note links live in side tables and are loaded with each note.
type PostgresNoteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNoteStore creates a new PostgreSQL implementation of the NoteStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresNoteStore(db store.DBTX, log *slog.Logger) *PostgresNoteStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresNoteStore{
		db:     db,
		logger: log.With(slog.String("component", "note_store")),
	}
}

// Ensure PostgresNoteStore implements store.NoteStore interface
var _ store.NoteStore = (*PostgresNoteStore)(nil)

// Create implements store.NoteStore.Create
// It saves a new note along with its tags and related note links.
// Returns validation errors from the domain Note if data is invalid.
func (s *PostgresNoteStore) Create(ctx context.Context, note *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		log.Warn("note validation failed during create",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO notes (id, user_id, title, content, type, concept_id, course_id,
			retention, mnemonic_type, region, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		note.ID,
		note.UserID,
		note.Title,
		note.Content,
		note.Type,
		note.ConceptID,
		note.CourseID,
		note.Retention,
		note.MnemonicType,
		note.Region,
		note.Version,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()),
			slog.String("user_id", note.UserID.String()))
		return MapError(err)
	}

	if err := s.replaceTags(ctx, note.ID, note.Tags); err != nil {
		return err
	}
	if err := s.replaceRelations(ctx, note.ID, note.RelatedNoteIDs); err != nil {
		return err
	}

	log.Info("note created successfully",
		slog.String("note_id", note.ID.String()),
		slog.String("user_id", note.UserID.String()),
		slog.String("type", string(note.Type)))
	return nil
}

// GetByID implements store.NoteStore.GetByID
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *PostgresNoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, content, type, concept_id, course_id,
			retention, mnemonic_type, region, version, created_at, updated_at
		FROM notes
		WHERE id = $1
	`

	note, err := s.scanNote(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("note not found", slog.String("note_id", id.String()))
			return nil, store.ErrNoteNotFound
		}
		log.Error("failed to get note by ID",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return nil, MapError(err)
	}

	if err := s.loadSideTables(ctx, note); err != nil {
		return nil, err
	}

	return note, nil
}

// ListByUser implements store.NoteStore.ListByUser
// Notes are returned oldest first so the stable store order is the
// creation order.
func (s *PostgresNoteStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, content, type, concept_id, course_id,
			retention, mnemonic_type, region, version, created_at, updated_at
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list notes by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	notes := []*domain.Note{}
	for rows.Next() {
		note, err := s.scanNote(rows)
		if err != nil {
			log.Error("failed to scan note row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	for _, note := range notes {
		if err := s.loadSideTables(ctx, note); err != nil {
			return nil, err
		}
	}

	log.Debug("listed notes by user",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(notes)))
	return notes, nil
}

// Update implements store.NoteStore.Update
// The row is replaced only when its stored version equals expectedVersion;
// the version column is bumped in the same statement so concurrent writers
// cannot both succeed.
// Returns store.ErrVersionConflict when expectedVersion is stale and
// store.ErrNoteNotFound when the note does not exist.
func (s *PostgresNoteStore) Update(ctx context.Context, note *domain.Note, expectedVersion int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		log.Warn("note validation failed during update",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE notes
		SET title = $1, content = $2, type = $3, concept_id = $4, course_id = $5,
			retention = $6, mnemonic_type = $7, region = $8,
			version = version + 1, updated_at = $9
		WHERE id = $10 AND version = $11
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		note.Title,
		note.Content,
		note.Type,
		note.ConceptID,
		note.CourseID,
		note.Retention,
		note.MnemonicType,
		note.Region,
		note.UpdatedAt,
		note.ID,
		expectedVersion,
	)
	if err != nil {
		log.Error("failed to update note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return MapError(err)
	}

	if rowsAffected == 0 {
		// Distinguish a missing row from a stale version.
		var currentVersion int
		err := s.db.QueryRowContext(ctx, `SELECT version FROM notes WHERE id = $1`, note.ID).
			Scan(&currentVersion)
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("note not found for update", slog.String("note_id", note.ID.String()))
			return store.ErrNoteNotFound
		}
		if err != nil {
			return MapError(err)
		}
		log.Debug("note version conflict",
			slog.String("note_id", note.ID.String()),
			slog.Int("expected_version", expectedVersion),
			slog.Int("stored_version", currentVersion))
		return fmt.Errorf("%w: note %s expected version %d, stored %d",
			store.ErrVersionConflict, note.ID, expectedVersion, currentVersion)
	}

	if err := s.replaceTags(ctx, note.ID, note.Tags); err != nil {
		return err
	}
	if err := s.replaceRelations(ctx, note.ID, note.RelatedNoteIDs); err != nil {
		return err
	}

	note.Version = expectedVersion + 1

	log.Info("note updated successfully",
		slog.String("note_id", note.ID.String()),
		slog.Int("version", note.Version))
	return nil
}

// Delete implements store.NoteStore.Delete
// Tag and relation rows are removed by ON DELETE CASCADE.
func (s *PostgresNoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete note",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "note"); err != nil {
		log.Debug("note not found for delete", slog.String("note_id", id.String()))
		return store.ErrNoteNotFound
	}

	log.Info("note deleted successfully", slog.String("note_id", id.String()))
	return nil
}

// ClearConcept implements store.NoteStore.ClearConcept
// Versions are untouched: clearing a dangling reference is bookkeeping,
// not an edit.
func (s *PostgresNoteStore) ClearConcept(ctx context.Context, conceptID uuid.UUID) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE notes
		SET concept_id = NULL
		WHERE concept_id = $1
		RETURNING id
	`
	rows, err := s.db.QueryContext(ctx, query, conceptID)
	if err != nil {
		log.Error("failed to clear concept references",
			slog.String("error", err.Error()),
			slog.String("concept_id", conceptID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cleared := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			log.Error("failed to scan cleared note ID", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		cleared = append(cleared, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Info("concept references cleared",
		slog.String("concept_id", conceptID.String()),
		slog.Int("note_count", len(cleared)))
	return cleared, nil
}

// WithTx implements store.NoteStore.WithTx
// It returns a new NoteStore that runs all operations on the given transaction.
func (s *PostgresNoteStore) WithTx(tx *sql.Tx) store.NoteStore {
	return &PostgresNoteStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanNote reads one notes row into a domain.Note.
func (s *PostgresNoteStore) scanNote(row rowScanner) (*domain.Note, error) {
	var note domain.Note
	var noteType, region string
	var mnemonicType sql.NullString
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&noteType,
		&note.ConceptID,
		&note.CourseID,
		&note.Retention,
		&mnemonicType,
		&region,
		&note.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	note.Type = domain.NoteType(noteType)
	note.Region = domain.Region(region)
	if mnemonicType.Valid {
		st := domain.StructureType(mnemonicType.String)
		note.MnemonicType = &st
	}
	note.CreatedAt = createdAt.UTC()
	note.UpdatedAt = updatedAt.UTC()
	note.Tags = []string{}
	note.RelatedNoteIDs = []uuid.UUID{}

	return &note, nil
}

// loadSideTables fills in the note's tags and related note links.
func (s *PostgresNoteStore) loadSideTables(ctx context.Context, note *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tagRows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM note_tags WHERE note_id = $1 ORDER BY tag`, note.ID)
	if err != nil {
		log.Error("failed to load note tags",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return MapError(err)
	}
	defer func() {
		if err := tagRows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for tagRows.Next() {
		var tag string
		if err := tagRows.Scan(&tag); err != nil {
			return MapError(err)
		}
		note.Tags = append(note.Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return MapError(err)
	}

	relRows, err := s.db.QueryContext(ctx,
		`SELECT related_note_id FROM note_relations WHERE note_id = $1`, note.ID)
	if err != nil {
		log.Error("failed to load note relations",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return MapError(err)
	}
	defer func() {
		if err := relRows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for relRows.Next() {
		var relatedID uuid.UUID
		if err := relRows.Scan(&relatedID); err != nil {
			return MapError(err)
		}
		note.RelatedNoteIDs = append(note.RelatedNoteIDs, relatedID)
	}
	return MapError(relRows.Err())
}

// replaceTags rewrites the note's tag rows to match the given set.
func (s *PostgresNoteStore) replaceTags(ctx context.Context, noteID uuid.UUID, tags []string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM note_tags WHERE note_id = $1`, noteID); err != nil {
		return MapError(err)
	}
	for _, tag := range tags {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO note_tags (note_id, tag) VALUES ($1, $2)`,
			noteID, tag); err != nil {
			return MapError(err)
		}
	}
	return nil
}

// replaceRelations rewrites the note's relation rows to match the given set.
func (s *PostgresNoteStore) replaceRelations(ctx context.Context, noteID uuid.UUID, relatedIDs []uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM note_relations WHERE note_id = $1`, noteID); err != nil {
		return MapError(err)
	}
	for _, relatedID := range relatedIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO note_relations (note_id, related_note_id) VALUES ($1, $2)`,
			noteID, relatedID); err != nil {
			return MapError(err)
		}
	}
	return nil
}

// ListAllNotes loads every note in the database. Used once at startup to
// rebuild the in-memory tag/concept/course index.
func ListAllNotes(ctx context.Context, db store.DBTX) ([]*domain.Note, error) {
	s := NewPostgresNoteStore(db, nil)

	query := `
		SELECT id, user_id, title, content, type, concept_id, course_id,
			retention, mnemonic_type, region, version, created_at, updated_at
		FROM notes
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	notes := []*domain.Note{}
	for rows.Next() {
		note, err := s.scanNote(rows)
		if err != nil {
			return nil, MapError(err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	for _, note := range notes {
		if err := s.loadSideTables(ctx, note); err != nil {
			return nil, err
		}
	}

	return notes, nil
}
