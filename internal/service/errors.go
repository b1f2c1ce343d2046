// Package service provides application-level services for managing notes,
// memory structures and learner profiles.
package service

import (
	"errors"
	"fmt"

	"github.com/noetic/noospace-api/internal/domain/lattice"
	"github.com/noetic/noospace-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrValidation indicates the request carried missing or malformed
	// fields. Never retried.
	// API layer should map this to HTTP 400 Bad Request.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested note, concept or structure does
	// not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a version conflict that survived the bounded
	// automatic retries, or one that is deliberately never retried
	// (promotions). The caller must re-fetch and retry.
	// API layer should map this to HTTP 409 Conflict.
	ErrConflict = errors.New("resource was modified concurrently")

	// ErrNotOwned indicates a resource is owned by a different user than
	// the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")
)

// ServiceError wraps unexpected errors from the service layer with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_note", "promote_note")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError, mapping well-known store and
// domain errors to service-level sentinels first. Errors the API layer
// already understands (lattice violations, version conflicts, timeouts)
// pass through unwrapped so errors.Is keeps working end to end.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotOwned):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, store.ErrVersionConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, store.ErrInvalidEntity):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, lattice.ErrInvalidTransition),
		errors.Is(err, lattice.ErrUnknownType),
		errors.Is(err, store.ErrTimeout):
		return err
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
