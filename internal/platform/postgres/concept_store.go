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

// PostgresConceptStore implements the store.ConceptStore interface
// using a PostgreSQL database as the storage backend.
type PostgresConceptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresConceptStore creates a new PostgreSQL implementation of the ConceptStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresConceptStore(db store.DBTX, log *slog.Logger) *PostgresConceptStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresConceptStore{
		db:     db,
		logger: log.With(slog.String("component", "concept_store")),
	}
}

// Ensure PostgresConceptStore implements store.ConceptStore interface
var _ store.ConceptStore = (*PostgresConceptStore)(nil)

// Create implements store.ConceptStore.Create
func (s *PostgresConceptStore) Create(ctx context.Context, concept *domain.Concept) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := concept.Validate(); err != nil {
		log.Warn("concept validation failed during create",
			slog.String("error", err.Error()),
			slog.String("concept_id", concept.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO concepts (id, user_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		concept.ID,
		concept.UserID,
		concept.Name,
		concept.Description,
		concept.CreatedAt,
		concept.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create concept",
			slog.String("error", err.Error()),
			slog.String("concept_id", concept.ID.String()))
		return MapError(err)
	}

	log.Info("concept created successfully",
		slog.String("concept_id", concept.ID.String()),
		slog.String("name", concept.Name))
	return nil
}

// GetByID implements store.ConceptStore.GetByID
// Returns store.ErrConceptNotFound if the concept does not exist.
func (s *PostgresConceptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Concept, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM concepts
		WHERE id = $1
	`

	var concept domain.Concept
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&concept.ID,
		&concept.UserID,
		&concept.Name,
		&concept.Description,
		&concept.CreatedAt,
		&concept.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("concept not found", slog.String("concept_id", id.String()))
			return nil, store.ErrConceptNotFound
		}
		log.Error("failed to get concept by ID",
			slog.String("error", err.Error()),
			slog.String("concept_id", id.String()))
		return nil, MapError(err)
	}

	return &concept, nil
}

// ListByUser implements store.ConceptStore.ListByUser
func (s *PostgresConceptStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Concept, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM concepts
		WHERE user_id = $1
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list concepts by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	concepts := []*domain.Concept{}
	for rows.Next() {
		var concept domain.Concept
		err := rows.Scan(
			&concept.ID,
			&concept.UserID,
			&concept.Name,
			&concept.Description,
			&concept.CreatedAt,
			&concept.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan concept row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		concepts = append(concepts, &concept)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return concepts, nil
}

// UpsertEdge implements store.ConceptStore.UpsertEdge
// The (from, to) pair is unique; re-inserting replaces the weight.
func (s *PostgresConceptStore) UpsertEdge(ctx context.Context, edge *domain.ConceptEdge) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := edge.Validate(); err != nil {
		log.Warn("concept edge validation failed",
			slog.String("error", err.Error()),
			slog.String("from", edge.FromConceptID.String()),
			slog.String("to", edge.ToConceptID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO concept_edges (id, from_concept_id, to_concept_id, weight, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (from_concept_id, to_concept_id)
		DO UPDATE SET weight = EXCLUDED.weight
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		edge.ID,
		edge.FromConceptID,
		edge.ToConceptID,
		edge.Weight,
		edge.CreatedAt,
	)
	if err != nil {
		log.Error("failed to upsert concept edge",
			slog.String("error", err.Error()),
			slog.String("from", edge.FromConceptID.String()),
			slog.String("to", edge.ToConceptID.String()))
		return MapError(err)
	}

	log.Debug("concept edge upserted",
		slog.String("from", edge.FromConceptID.String()),
		slog.String("to", edge.ToConceptID.String()),
		slog.Float64("weight", edge.Weight))
	return nil
}

// ListEdges implements store.ConceptStore.ListEdges
// Edges are matched in either direction.
func (s *PostgresConceptStore) ListEdges(ctx context.Context, conceptID uuid.UUID) ([]*domain.ConceptEdge, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, from_concept_id, to_concept_id, weight, created_at
		FROM concept_edges
		WHERE from_concept_id = $1 OR to_concept_id = $1
		ORDER BY from_concept_id, to_concept_id
	`

	rows, err := s.db.QueryContext(ctx, query, conceptID)
	if err != nil {
		log.Error("failed to list concept edges",
			slog.String("error", err.Error()),
			slog.String("concept_id", conceptID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	edges := []*domain.ConceptEdge{}
	for rows.Next() {
		var edge domain.ConceptEdge
		err := rows.Scan(
			&edge.ID,
			&edge.FromConceptID,
			&edge.ToConceptID,
			&edge.Weight,
			&edge.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan concept edge row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		edges = append(edges, &edge)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return edges, nil
}

// Delete implements store.ConceptStore.Delete
// Edges touching the concept go first; note references are the caller's
// job, in the same transaction.
func (s *PostgresConceptStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM concept_edges WHERE from_concept_id = $1 OR to_concept_id = $1`, id)
	if err != nil {
		log.Error("failed to delete concept edges",
			slog.String("error", err.Error()),
			slog.String("concept_id", id.String()))
		return MapError(err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM concepts WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete concept",
			slog.String("error", err.Error()),
			slog.String("concept_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "concept"); err != nil {
		log.Debug("concept not found for delete", slog.String("concept_id", id.String()))
		return store.ErrConceptNotFound
	}

	log.Info("concept deleted successfully", slog.String("concept_id", id.String()))
	return nil
}

// WithTx implements store.ConceptStore.WithTx
func (s *PostgresConceptStore) WithTx(tx *sql.Tx) store.ConceptStore {
	return &PostgresConceptStore{
		db:     tx,
		logger: s.logger,
	}
}
