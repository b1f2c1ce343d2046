package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/api/shared"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/query"
	"github.com/noetic/noospace-api/internal/service"
)

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	noteService    service.NoteService
	suggestService service.SuggestService
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(noteService service.NoteService, suggestService service.SuggestService) *NoteHandler {
	return &NoteHandler{
		noteService:    noteService,
		suggestService: suggestService,
	}
}

// requestUserID extracts the authenticated user ID set by the auth
// middleware, writing a 401 if it is missing.
func requestUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}

// pathNoteID parses the {id} URL parameter.
func pathNoteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	noteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid note ID")
		return uuid.Nil, false
	}
	return noteID, true
}

// CreateNote handles POST /api/notes requests
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	note, err := h.noteService.CreateNote(r.Context(), userID, service.CreateNoteInput{
		Title:          req.Title,
		Content:        req.Content,
		Type:           domain.NoteType(req.Type),
		Tags:           req.Tags,
		ConceptID:      req.ConceptID,
		CourseID:       req.CourseID,
		RelatedNoteIDs: req.RelatedNoteIDs,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, noteToResponse(note))
}

// GetNote handles GET /api/notes/{id} requests
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathNoteID(w, r)
	if !ok {
		return
	}

	note, err := h.noteService.GetNote(r.Context(), userID, noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(note))
}

// ListNotes handles GET /api/notes requests. Filters come from query
// parameters: type, q, tags (comma separated), course_id, concept_id
// and sort.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	filter := query.Filter{
		Type:  r.URL.Query().Get("type"),
		Query: r.URL.Query().Get("q"),
		Sort:  query.Sort(r.URL.Query().Get("sort")),
	}
	if tags := r.URL.Query().Get("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}
	if course := r.URL.Query().Get("course_id"); course != "" {
		courseID, err := uuid.Parse(course)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid course ID")
			return
		}
		filter.CourseID = &courseID
	}
	if concept := r.URL.Query().Get("concept_id"); concept != "" {
		conceptID, err := uuid.Parse(concept)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid concept ID")
			return
		}
		filter.ConceptID = &conceptID
	}

	notes, err := h.noteService.ListNotes(r.Context(), userID, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		responses = append(responses, noteToResponse(note))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// ListTags handles GET /api/tags requests.
func (h *NoteHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestUserID(w, r); !ok {
		return
	}

	tags, err := h.noteService.ListTags(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tags)
}

// UpdateNote handles PUT /api/notes/{id} requests
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathNoteID(w, r)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	input := service.UpdateNoteInput{
		Title:      req.Title,
		Content:    req.Content,
		ConceptID:  req.ConceptID,
		SetConcept: req.SetConcept,
		CourseID:   req.CourseID,
		SetCourse:  req.SetCourse,
	}
	if req.Tags != nil {
		input.Tags = *req.Tags
		input.SetTags = true
	}
	if req.RelatedNoteIDs != nil {
		input.RelatedNoteIDs = *req.RelatedNoteIDs
		input.SetRelated = true
	}

	note, err := h.noteService.UpdateNote(r.Context(), userID, noteID, input)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(note))
}

// PromoteNote handles POST /api/notes/{id}/promote requests
func (h *NoteHandler) PromoteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathNoteID(w, r)
	if !ok {
		return
	}

	var req PromoteNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	note, err := h.noteService.PromoteNote(r.Context(), userID, noteID,
		domain.NoteType(req.To), req.Version)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(note))
}

// DeleteNote handles DELETE /api/notes/{id} requests
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathNoteID(w, r)
	if !ok {
		return
	}

	if err := h.noteService.DeleteNote(r.Context(), userID, noteID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SuggestRelated handles POST /api/notes/suggest requests. Suggestions
// are advisory, so the endpoint never fails on storage errors.
func (h *NoteHandler) SuggestRelated(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req SuggestRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	excludeID := uuid.Nil
	if req.ExcludeID != nil {
		excludeID = *req.ExcludeID
	}

	suggestions := h.suggestService.SuggestRelated(r.Context(), userID, req.Draft, excludeID)
	shared.RespondWithJSON(w, r, http.StatusOK, suggestionsToResponse(suggestions))
}
