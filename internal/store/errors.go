package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is a generic version of the entity-specific not found
	// errors below.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrVersionConflict is returned when a versioned update supplies a
	// version that no longer matches the stored row. The caller must
	// re-read the current state and reapply the change; the store never
	// overwrites a newer version with stale data.
	ErrVersionConflict = errors.New("version conflict")

	// ErrTimeout is returned when a storage operation exceeds the caller's
	// deadline. The operation may be retried.
	ErrTimeout = errors.New("storage operation timed out")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrNoteNotFound indicates that the requested note does not exist in the store.
	ErrNoteNotFound = fmt.Errorf("%w: note", ErrNotFound)

	// ErrConceptNotFound indicates that the requested concept does not exist in the store.
	ErrConceptNotFound = fmt.Errorf("%w: concept", ErrNotFound)

	// ErrStructureNotFound indicates that the requested memory structure does not exist in the store.
	ErrStructureNotFound = fmt.Errorf("%w: memory structure", ErrNotFound)

	// ErrPalaceNotFound indicates that no palace exists for the requested user and course.
	ErrPalaceNotFound = fmt.Errorf("%w: palace", ErrNotFound)

	// ErrMemoryNodeNotFound indicates that the requested memory node does not exist in the store.
	ErrMemoryNodeNotFound = fmt.Errorf("%w: memory node", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// This includes the generic ErrNotFound and all entity-specific not found errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError checks if the error is a version conflict.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsTimeoutError checks if the error is a storage timeout. Timeouts are
// transient and safe to retry.
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "note", "palace")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
