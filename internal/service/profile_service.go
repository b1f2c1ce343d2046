package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/domain/retention"
	"github.com/noetic/noospace-api/internal/similarity"
	"github.com/noetic/noospace-api/internal/store"
	"github.com/noetic/noospace-api/internal/task"
)

// ProfileService computes and caches learner profiles.
//
// It implements task.ProfileRecomputer and task.ProfileInvalidator: note
// mutations invalidate the cached profile and schedule a debounced
// background recompute, so a burst of edits costs one recomputation.
type ProfileService interface {
	// Profile returns the user's learner profile, from cache when fresh.
	// force bypasses the cache and recomputes synchronously.
	Profile(ctx context.Context, userID uuid.UUID, force bool) (domain.LearnerProfile, error)

	// Recompute rebuilds the profile from current note state and caches it.
	Recompute(ctx context.Context, userID uuid.UUID) error

	// Invalidate drops the cached profile and schedules a debounced
	// background recompute.
	Invalidate(ctx context.Context, userID uuid.UUID)

	// Close stops pending debounce timers.
	Close()
}

// TaskSubmitter enqueues background tasks. Satisfied by *task.TaskRunner.
type TaskSubmitter interface {
	Submit(ctx context.Context, t task.Task) error
}

// profileCacheCost is the ristretto cost of one cached profile. Profiles
// are a few scalar fields, so cost accounting is by entry count.
const profileCacheCost = 1

// profileServiceImpl implements the ProfileService interface.
type profileServiceImpl struct {
	noteStore store.NoteStore
	retention retention.Service
	cache     *ristretto.Cache
	submitter TaskSubmitter
	debounce  time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	debouncers map[uuid.UUID]*similarity.Debouncer
	closed     bool
}

// NewProfileService creates a new ProfileService. debounce controls how
// long after the last invalidation the background recompute fires.
func NewProfileService(
	noteStore store.NoteStore,
	retentionSvc retention.Service,
	submitter TaskSubmitter,
	debounce time.Duration,
	logger *slog.Logger,
) (ProfileService, error) {
	if noteStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "noteStore cannot be nil"}
	}
	if retentionSvc == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "retention service cannot be nil"}
	}
	if submitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "task submitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, &ServiceError{Operation: "create_service", Message: "failed to create profile cache", Err: err}
	}

	return &profileServiceImpl{
		noteStore:  noteStore,
		retention:  retentionSvc,
		cache:      cache,
		submitter:  submitter,
		debounce:   debounce,
		logger:     logger.With("component", "profile_service"),
		now:        func() time.Time { return time.Now().UTC() },
		debouncers: make(map[uuid.UUID]*similarity.Debouncer),
	}, nil
}

// Profile implements ProfileService.Profile.
func (s *profileServiceImpl) Profile(
	ctx context.Context,
	userID uuid.UUID,
	force bool,
) (domain.LearnerProfile, error) {
	if !force {
		if cached, ok := s.cache.Get(userID.String()); ok {
			if profile, ok := cached.(domain.LearnerProfile); ok {
				return profile, nil
			}
		}
	}

	profile, err := s.compute(ctx, userID)
	if err != nil {
		return domain.LearnerProfile{}, NewServiceError("get_profile", "failed to compute profile", err)
	}

	s.cacheSet(userID, profile)
	return profile, nil
}

// Recompute implements ProfileService.Recompute and task.ProfileRecomputer.
func (s *profileServiceImpl) Recompute(ctx context.Context, userID uuid.UUID) error {
	profile, err := s.compute(ctx, userID)
	if err != nil {
		return NewServiceError("recompute_profile", "failed to compute profile", err)
	}

	s.cacheSet(userID, profile)
	s.logger.Debug("profile recomputed",
		"user_id", userID,
		"note_count", profile.NoteCount,
		"retention_score", profile.RetentionScore)
	return nil
}

// Invalidate implements ProfileService.Invalidate and task.ProfileInvalidator.
// The cache entry is dropped immediately so the next read is fresh; the
// recompute that warms it back up is debounced per user.
func (s *profileServiceImpl) Invalidate(_ context.Context, userID uuid.UUID) {
	s.cache.Del(userID.String())

	debouncer := s.debouncerFor(userID)
	if debouncer == nil {
		return
	}

	debouncer.Trigger(func() {
		s.scheduleRecompute(userID)
	})
}

// Close implements ProfileService.Close.
func (s *profileServiceImpl) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, debouncer := range s.debouncers {
		debouncer.Stop()
	}
	s.debouncers = make(map[uuid.UUID]*similarity.Debouncer)
}

// compute derives the profile from the user's current notes.
func (s *profileServiceImpl) compute(ctx context.Context, userID uuid.UUID) (domain.LearnerProfile, error) {
	notes, err := s.noteStore.ListByUser(ctx, userID)
	if err != nil {
		return domain.LearnerProfile{}, err
	}
	return s.retention.Profile(notes, s.now()), nil
}

func (s *profileServiceImpl) cacheSet(userID uuid.UUID, profile domain.LearnerProfile) {
	s.cache.Set(userID.String(), profile, profileCacheCost)
	s.cache.Wait()
}

func (s *profileServiceImpl) debouncerFor(userID uuid.UUID) *similarity.Debouncer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	debouncer, ok := s.debouncers[userID]
	if !ok {
		debouncer = similarity.NewDebouncer(s.debounce)
		s.debouncers[userID] = debouncer
	}
	return debouncer
}

// scheduleRecompute submits a background recompute task. A full queue is
// tolerable: the cache entry is already gone, so the next read recomputes
// on demand.
func (s *profileServiceImpl) scheduleRecompute(userID uuid.UUID) {
	recompute, err := task.NewProfileRecomputeTask(userID, s)
	if err != nil {
		s.logger.Error("failed to create profile recompute task",
			"error", err,
			"user_id", userID)
		return
	}

	if err := s.submitter.Submit(context.Background(), recompute); err != nil {
		s.logger.Warn("failed to submit profile recompute task",
			"error", err,
			"user_id", userID)
	}
}
