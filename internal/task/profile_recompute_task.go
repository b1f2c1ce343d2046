package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ProfileRecomputer recomputes the learner profile for one user from
// current store state. Implemented by the profile service.
type ProfileRecomputer interface {
	Recompute(ctx context.Context, userID uuid.UUID) error
}

// ProfileRecomputeTask recomputes a user's learner profile in the
// background after note mutations.
type ProfileRecomputeTask struct {
	id         uuid.UUID
	userID     uuid.UUID
	recomputer ProfileRecomputer

	mu     sync.Mutex
	status TaskStatus
}

// NewProfileRecomputeTask creates a task that recomputes the given user's
// profile when executed.
func NewProfileRecomputeTask(userID uuid.UUID, recomputer ProfileRecomputer) (*ProfileRecomputeTask, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("userID cannot be nil")
	}
	if recomputer == nil {
		return nil, fmt.Errorf("recomputer cannot be nil")
	}

	return &ProfileRecomputeTask{
		id:         uuid.New(),
		userID:     userID,
		recomputer: recomputer,
		status:     TaskStatusPending,
	}, nil
}

// ID implements Task.ID
func (t *ProfileRecomputeTask) ID() uuid.UUID {
	return t.id
}

// Type implements Task.Type
func (t *ProfileRecomputeTask) Type() string {
	return TaskTypeProfileRecompute
}

// Payload implements Task.Payload
func (t *ProfileRecomputeTask) Payload() []byte {
	payload, err := json.Marshal(struct {
		UserID uuid.UUID `json:"user_id"`
	}{UserID: t.userID})
	if err != nil {
		return nil
	}
	return payload
}

// Status implements Task.Status
func (t *ProfileRecomputeTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// setStatus updates the task status under lock.
func (t *ProfileRecomputeTask) setStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// Execute implements Task.Execute
func (t *ProfileRecomputeTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)

	if err := t.recomputer.Recompute(ctx, t.userID); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("profile recompute for user %s failed: %w", t.userID, err)
	}

	t.setStatus(TaskStatusCompleted)
	return nil
}
