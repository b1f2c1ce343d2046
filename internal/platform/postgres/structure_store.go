package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/platform/logger"
	"github.com/noetic/noospace-api/internal/store"
)

// PostgresStructureStore implements the store.StructureStore interface
// using a PostgreSQL database as the storage backend. It covers the
// memory structure records plus the palace hierarchy and memory nodes.
type PostgresStructureStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStructureStore creates a new PostgreSQL implementation of the StructureStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresStructureStore(db store.DBTX, log *slog.Logger) *PostgresStructureStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresStructureStore{
		db:     db,
		logger: log.With(slog.String("component", "structure_store")),
	}
}

// Ensure PostgresStructureStore implements store.StructureStore interface
var _ store.StructureStore = (*PostgresStructureStore)(nil)

// CreateStructure implements store.StructureStore.CreateStructure
func (s *PostgresStructureStore) CreateStructure(ctx context.Context, structure *domain.MemoryStructure) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := structure.Validate(); err != nil {
		log.Warn("structure validation failed during create",
			slog.String("error", err.Error()),
			slog.String("structure_id", structure.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO memory_structures (id, user_id, name, type, course_id,
			node_count, connection_count, region, x, y, z, last_modified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		structure.ID,
		structure.UserID,
		structure.Name,
		structure.Type,
		structure.CourseID,
		structure.NodeCount,
		structure.ConnectionCount,
		structure.Region,
		structure.X,
		structure.Y,
		structure.Z,
		structure.LastModified,
		structure.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create memory structure",
			slog.String("error", err.Error()),
			slog.String("structure_id", structure.ID.String()))
		return MapError(err)
	}

	log.Info("memory structure created",
		slog.String("structure_id", structure.ID.String()),
		slog.String("type", string(structure.Type)))
	return nil
}

// GetStructure implements store.StructureStore.GetStructure
// Returns store.ErrStructureNotFound if the structure does not exist.
func (s *PostgresStructureStore) GetStructure(ctx context.Context, id uuid.UUID) (*domain.MemoryStructure, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, type, course_id, node_count, connection_count,
			region, x, y, z, last_modified, created_at
		FROM memory_structures
		WHERE id = $1
	`

	structure, err := scanStructure(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("structure not found", slog.String("structure_id", id.String()))
			return nil, store.ErrStructureNotFound
		}
		log.Error("failed to get structure by ID",
			slog.String("error", err.Error()),
			slog.String("structure_id", id.String()))
		return nil, MapError(err)
	}

	return structure, nil
}

// ListStructuresByUser implements store.StructureStore.ListStructuresByUser
func (s *PostgresStructureStore) ListStructuresByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryStructure, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, type, course_id, node_count, connection_count,
			region, x, y, z, last_modified, created_at
		FROM memory_structures
		WHERE user_id = $1
		ORDER BY last_modified DESC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list structures by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	structures := []*domain.MemoryStructure{}
	for rows.Next() {
		structure, err := scanStructure(rows)
		if err != nil {
			log.Error("failed to scan structure row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		structures = append(structures, structure)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return structures, nil
}

// UpdateStructure implements store.StructureStore.UpdateStructure
func (s *PostgresStructureStore) UpdateStructure(ctx context.Context, structure *domain.MemoryStructure) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := structure.Validate(); err != nil {
		log.Warn("structure validation failed during update",
			slog.String("error", err.Error()),
			slog.String("structure_id", structure.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE memory_structures
		SET name = $1, node_count = $2, connection_count = $3, region = $4,
			x = $5, y = $6, z = $7, last_modified = $8
		WHERE id = $9
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		structure.Name,
		structure.NodeCount,
		structure.ConnectionCount,
		structure.Region,
		structure.X,
		structure.Y,
		structure.Z,
		structure.LastModified,
		structure.ID,
	)
	if err != nil {
		log.Error("failed to update memory structure",
			slog.String("error", err.Error()),
			slog.String("structure_id", structure.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "memory structure"); err != nil {
		return store.ErrStructureNotFound
	}

	return nil
}

// GetPalaceForCourse implements store.StructureStore.GetPalaceForCourse
func (s *PostgresStructureStore) GetPalaceForCourse(ctx context.Context, userID, courseID uuid.UUID) (*domain.Palace, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, course_id, created_at
		FROM palaces
		WHERE user_id = $1 AND course_id = $2
	`

	var palace domain.Palace
	err := s.db.QueryRowContext(ctx, query, userID, courseID).Scan(
		&palace.ID,
		&palace.UserID,
		&palace.Name,
		&palace.CourseID,
		&palace.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPalaceNotFound
		}
		log.Error("failed to get palace for course",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("course_id", courseID.String()))
		return nil, MapError(err)
	}

	return &palace, nil
}

// CreatePalace implements store.StructureStore.CreatePalace
func (s *PostgresStructureStore) CreatePalace(ctx context.Context, palace *domain.Palace) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := palace.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO palaces (id, user_id, name, course_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		palace.ID, palace.UserID, palace.Name, palace.CourseID, palace.CreatedAt)
	if err != nil {
		log.Error("failed to create palace",
			slog.String("error", err.Error()),
			slog.String("palace_id", palace.ID.String()))
		return MapError(err)
	}

	log.Info("palace created", slog.String("palace_id", palace.ID.String()))
	return nil
}

// ListRooms implements store.StructureStore.ListRooms
func (s *PostgresStructureStore) ListRooms(ctx context.Context, palaceID uuid.UUID) ([]*domain.Room, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, palace_id, name, created_at
		FROM rooms
		WHERE palace_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, palaceID)
	if err != nil {
		log.Error("failed to list rooms",
			slog.String("error", err.Error()),
			slog.String("palace_id", palaceID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	rooms := []*domain.Room{}
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.PalaceID, &room.Name, &room.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		rooms = append(rooms, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return rooms, nil
}

// CreateRoom implements store.StructureStore.CreateRoom
func (s *PostgresStructureStore) CreateRoom(ctx context.Context, room *domain.Room) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := room.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO rooms (id, palace_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, room.ID, room.PalaceID, room.Name, room.CreatedAt)
	if err != nil {
		log.Error("failed to create room",
			slog.String("error", err.Error()),
			slog.String("room_id", room.ID.String()))
		return MapError(err)
	}

	return nil
}

// CreateMemoryNode implements store.StructureStore.CreateMemoryNode
func (s *PostgresStructureStore) CreateMemoryNode(ctx context.Context, node *domain.MemoryNode) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := node.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO memory_nodes (id, user_id, source_note_id, content, description, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		node.ID, node.UserID, node.SourceNoteID, node.Content,
		node.Description, node.Position, node.CreatedAt)
	if err != nil {
		log.Error("failed to create memory node",
			slog.String("error", err.Error()),
			slog.String("node_id", node.ID.String()))
		return MapError(err)
	}

	return nil
}

// CreatePalaceNode implements store.StructureStore.CreatePalaceNode
func (s *PostgresStructureStore) CreatePalaceNode(ctx context.Context, node *domain.PalaceNode) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := node.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO palace_nodes (id, room_id, memory_node_id, location, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		node.ID, node.RoomID, node.MemoryNodeID, node.Location, node.CreatedAt)
	if err != nil {
		log.Error("failed to create palace node",
			slog.String("error", err.Error()),
			slog.String("palace_node_id", node.ID.String()))
		return MapError(err)
	}

	return nil
}

// DetachMemoryNodeSource implements store.StructureStore.DetachMemoryNodeSource
func (s *PostgresStructureStore) DetachMemoryNodeSource(ctx context.Context, noteID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE memory_nodes SET source_note_id = NULL WHERE source_note_id = $1`, noteID)
	if err != nil {
		log.Error("failed to detach memory node sources",
			slog.String("error", err.Error()),
			slog.String("note_id", noteID.String()))
		return 0, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(err)
	}

	log.Debug("detached memory node sources",
		slog.String("note_id", noteID.String()),
		slog.Int64("count", rowsAffected))
	return int(rowsAffected), nil
}

// DeleteMemoryNodesBySource implements store.StructureStore.DeleteMemoryNodesBySource
// Palace placements are removed by ON DELETE CASCADE.
func (s *PostgresStructureStore) DeleteMemoryNodesBySource(ctx context.Context, noteID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM memory_nodes WHERE source_note_id = $1`, noteID)
	if err != nil {
		log.Error("failed to delete memory nodes by source",
			slog.String("error", err.Error()),
			slog.String("note_id", noteID.String()))
		return 0, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(err)
	}

	log.Debug("deleted memory nodes by source",
		slog.String("note_id", noteID.String()),
		slog.Int64("count", rowsAffected))
	return int(rowsAffected), nil
}

// ListOrphanMemoryNodes implements store.StructureStore.ListOrphanMemoryNodes
func (s *PostgresStructureStore) ListOrphanMemoryNodes(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryNode, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, source_note_id, content, description, position, created_at
		FROM memory_nodes
		WHERE user_id = $1 AND source_note_id IS NULL
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list orphan memory nodes",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	nodes := []*domain.MemoryNode{}
	for rows.Next() {
		var node domain.MemoryNode
		err := rows.Scan(
			&node.ID,
			&node.UserID,
			&node.SourceNoteID,
			&node.Content,
			&node.Description,
			&node.Position,
			&node.CreatedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		nodes = append(nodes, &node)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return nodes, nil
}

// WithTx implements store.StructureStore.WithTx
func (s *PostgresStructureStore) WithTx(tx *sql.Tx) store.StructureStore {
	return &PostgresStructureStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanStructure reads one memory_structures row.
func scanStructure(row rowScanner) (*domain.MemoryStructure, error) {
	var structure domain.MemoryStructure
	var structureType, region string

	err := row.Scan(
		&structure.ID,
		&structure.UserID,
		&structure.Name,
		&structureType,
		&structure.CourseID,
		&structure.NodeCount,
		&structure.ConnectionCount,
		&region,
		&structure.X,
		&structure.Y,
		&structure.Z,
		&structure.LastModified,
		&structure.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	structure.Type = domain.StructureType(structureType)
	structure.Region = domain.Region(region)
	return &structure, nil
}
