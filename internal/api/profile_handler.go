package api

import (
	"net/http"

	"github.com/noetic/noospace-api/internal/api/shared"
	"github.com/noetic/noospace-api/internal/service"
)

// ProfileHandler handles learner-profile HTTP requests
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// GetProfile handles GET /api/profile requests. force=true bypasses the
// cache and recomputes synchronously.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	force := r.URL.Query().Get("force") == "true"

	profile, err := h.profileService.Profile(r.Context(), userID, force)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProfileResponse{
		RetentionScore:     profile.RetentionScore,
		UnderstandingScore: profile.UnderstandingScore,
		NoteCount:          profile.NoteCount,
		ComputedAt:         profile.ComputedAt,
	})
}
