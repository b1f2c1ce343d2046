package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/api/shared"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/service"
)

// StructureHandler handles memory-structure HTTP requests
type StructureHandler struct {
	structureService service.StructureService
}

// NewStructureHandler creates a new StructureHandler
func NewStructureHandler(structureService service.StructureService) *StructureHandler {
	return &StructureHandler{
		structureService: structureService,
	}
}

// AssignStructure handles POST /api/notes/{id}/structure requests
func (h *StructureHandler) AssignStructure(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathNoteID(w, r)
	if !ok {
		return
	}

	var req AssignStructureRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	structure, err := h.structureService.AssignStructure(r.Context(), userID, noteID,
		service.AssignStructureInput{
			Type:     domain.StructureType(req.Type),
			Name:     req.Name,
			Room:     req.Room,
			Location: req.Location,
			Weight:   req.Weight,
		})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, structureToResponse(structure))
}

// GetStructure handles GET /api/structures/{id} requests
func (h *StructureHandler) GetStructure(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	structureID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid structure ID")
		return
	}

	structure, err := h.structureService.GetStructure(r.Context(), userID, structureID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, structureToResponse(structure))
}

// DeleteConcept handles DELETE /api/concepts/{id} requests
func (h *StructureHandler) DeleteConcept(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	conceptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid concept ID")
		return
	}

	if err := h.structureService.DeleteConcept(r.Context(), userID, conceptID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListStructures handles GET /api/structures requests. The optional
// course_id parameter scopes the list; orphaned=true lists memory nodes
// whose source note has been deleted instead.
func (h *StructureHandler) ListStructures(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("orphaned") == "true" {
		h.listOrphans(w, r, userID)
		return
	}

	var courseID *uuid.UUID
	if course := r.URL.Query().Get("course_id"); course != "" {
		parsed, err := uuid.Parse(course)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid course ID")
			return
		}
		courseID = &parsed
	}

	structures, err := h.structureService.ListStructures(r.Context(), userID, courseID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]StructureResponse, 0, len(structures))
	for _, structure := range structures {
		responses = append(responses, structureToResponse(structure))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

func (h *StructureHandler) listOrphans(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	nodes, err := h.structureService.ListOrphans(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]MemoryNodeResponse, 0, len(nodes))
	for _, node := range nodes {
		responses = append(responses, memoryNodeToResponse(node))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}
