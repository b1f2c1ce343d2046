package api

import (
	"errors"
	"net/http"

	"github.com/noetic/noospace-api/internal/domain/lattice"
	"github.com/noetic/noospace-api/internal/service"
	"github.com/noetic/noospace-api/internal/service/auth"
	"github.com/noetic/noospace-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Lattice violations: the request is well-formed but the transition
	// is not allowed from the note's current state.
	case errors.Is(err, lattice.ErrInvalidTransition),
		errors.Is(err, lattice.ErrUnknownType):
		return http.StatusUnprocessableEntity

	// Conflict errors
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Storage timeouts are transient; clients may retry.
	case errors.Is(err, store.ErrTimeout):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this note"

	case errors.Is(err, store.ErrNoteNotFound):
		return "Note not found"

	case errors.Is(err, store.ErrConceptNotFound):
		return "Concept not found"

	case errors.Is(err, store.ErrStructureNotFound):
		return "Structure not found"

	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, lattice.ErrInvalidTransition),
		errors.Is(err, lattice.ErrUnknownType):
		return "Promotion not allowed from the note's current type"

	case errors.Is(err, service.ErrConflict),
		errors.Is(err, store.ErrVersionConflict):
		return "The note was modified concurrently, reload and try again"

	case errors.Is(err, service.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, store.ErrTimeout):
		return "Storage temporarily unavailable, try again"

	default:
		return "An unexpected error occurred"
	}
}
