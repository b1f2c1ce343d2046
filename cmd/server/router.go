package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/noetic/noospace-api/internal/api"
	apiMiddleware "github.com/noetic/noospace-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	noteHandler := api.NewNoteHandler(app.noteService, app.suggestService)
	structureHandler := api.NewStructureHandler(app.structureService)
	profileHandler := api.NewProfileHandler(app.profileService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Note endpoints
			r.Post("/notes", noteHandler.CreateNote)
			r.Get("/notes", noteHandler.ListNotes)
			r.Post("/notes/suggest", noteHandler.SuggestRelated)
			r.Get("/notes/{id}", noteHandler.GetNote)
			r.Put("/notes/{id}", noteHandler.UpdateNote)
			r.Delete("/notes/{id}", noteHandler.DeleteNote)
			r.Post("/notes/{id}/promote", noteHandler.PromoteNote)
			r.Get("/tags", noteHandler.ListTags)

			// Structure endpoints
			r.Post("/notes/{id}/structure", structureHandler.AssignStructure)
			r.Get("/structures", structureHandler.ListStructures)
			r.Get("/structures/{id}", structureHandler.GetStructure)
			r.Delete("/concepts/{id}", structureHandler.DeleteConcept)

			// Profile endpoint
			r.Get("/profile", profileHandler.GetProfile)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
