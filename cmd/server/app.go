package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/noetic/noospace-api/internal/config"
	"github.com/noetic/noospace-api/internal/domain/retention"
	"github.com/noetic/noospace-api/internal/events"
	"github.com/noetic/noospace-api/internal/index"
	"github.com/noetic/noospace-api/internal/platform/postgres"
	"github.com/noetic/noospace-api/internal/query"
	"github.com/noetic/noospace-api/internal/service"
	"github.com/noetic/noospace-api/internal/service/auth"
	"github.com/noetic/noospace-api/internal/store"
	"github.com/noetic/noospace-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	noteStore      store.NoteStore
	conceptStore   store.ConceptStore
	structureStore store.StructureStore

	// Core engine pieces
	index            *index.Index
	queryEngine      *query.Engine
	retentionService retention.Service

	// Service interfaces
	jwtService       auth.JWTService
	noteService      service.NoteService
	suggestService   service.SuggestService
	structureService service.StructureService
	profileService   service.ProfileService

	// Event system
	eventEmitter events.EventEmitter

	// Task handling
	taskRunner *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger and
// database connection that must be established before initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Stores
	app.noteStore = postgres.NewPostgresNoteStore(db, logger)
	app.conceptStore = postgres.NewPostgresConceptStore(db, logger)
	app.structureStore = postgres.NewPostgresStructureStore(db, logger)

	// Engine pieces
	app.index = index.New()
	app.queryEngine = query.New(app.index)
	app.retentionService = retention.NewServiceWithParams(retention.NewParams(retention.ParamsConfig{
		RegionThreshold: cfg.Engine.RegionThreshold,
	}))

	// Task runner
	app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	// Event emitter
	emitter := events.NewInMemoryEventEmitter(logger)
	app.eventEmitter = emitter

	txRunner := service.NewDBTransactionRunner(db)

	app.noteService, err = service.NewNoteService(
		app.noteStore,
		app.structureStore,
		txRunner,
		app.retentionService,
		app.index,
		app.queryEngine,
		app.eventEmitter,
		service.NoteServiceConfig{
			OrphanPolicy:    cfg.Engine.OrphanPolicy,
			ConflictRetries: cfg.Engine.ConflictRetries,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create note service: %w", err)
	}

	app.suggestService, err = service.NewSuggestService(
		app.noteStore,
		cfg.Engine.SuggestionLimit,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggest service: %w", err)
	}

	app.structureService, err = service.NewStructureService(
		app.noteStore,
		app.conceptStore,
		app.structureStore,
		txRunner,
		app.retentionService,
		app.index,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create structure service: %w", err)
	}

	app.profileService, err = service.NewProfileService(
		app.noteStore,
		app.retentionService,
		app.taskRunner,
		time.Duration(cfg.Engine.DebounceMillis)*time.Millisecond,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile service: %w", err)
	}

	// Note mutations invalidate the owner's cached profile.
	mutationHandler, err := task.NewNoteMutationHandler(app.profileService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create note mutation handler: %w", err)
	}
	emitter.RegisterHandler(mutationHandler)

	if err := app.rebuildIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to rebuild note index: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// rebuildIndex loads all notes and rebuilds the tag/concept/course index.
// The index lives in memory, so a restart starts from the store.
func (app *application) rebuildIndex(ctx context.Context) error {
	notes, err := postgres.ListAllNotes(ctx, app.db)
	if err != nil {
		return err
	}
	app.index.Rebuild(notes)
	app.logger.Info("Note index rebuilt", "note_count", len(notes))
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.profileService != nil {
		app.profileService.Close()
	}

	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
