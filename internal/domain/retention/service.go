// Package retention implements the retention scoring model: per-note decay
// of the type's baseline weight over idle time, region classification, and
// the aggregate learner profile derived from a full note collection.
package retention

import (
	"time"

	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/domain/lattice"
)

// Service defines the retention model operations.
type Service interface {
	// Seed returns the initial retention score for a newly created note of
	// the given type: exactly the type's baseline weight.
	Seed(noteType domain.NoteType) (float64, error)

	// NoteRetention computes the current decayed retention score of a note
	// as observed at now.
	NoteRetention(note *domain.Note, now time.Time) float64

	// RegionFor classifies a retention score into a region.
	RegionFor(score float64) domain.Region

	// Profile computes the aggregate learner profile from the full note
	// collection as observed at now.
	Profile(notes []*domain.Note, now time.Time) domain.LearnerProfile
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a retention service with default parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a retention service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

// Seed implements Service.Seed.
func (s *defaultService) Seed(noteType domain.NoteType) (float64, error) {
	return lattice.Baseline(noteType)
}

// NoteRetention implements Service.NoteRetention. Notes of unknown type
// score zero rather than failing; stored notes are validated before they
// reach this point.
func (s *defaultService) NoteRetention(note *domain.Note, now time.Time) float64 {
	baseline, err := lattice.Baseline(note.Type)
	if err != nil {
		return 0
	}
	return Decay(baseline, note.UpdatedAt, now, s.params.Calibration)
}

// RegionFor implements Service.RegionFor.
func (s *defaultService) RegionFor(score float64) domain.Region {
	if score >= s.params.RegionThreshold {
		return domain.RegionLongTerm
	}
	return domain.RegionShortTerm
}

// Profile implements Service.Profile.
//
// RetentionScore weights each note's current retention by its type
// baseline, so mature notes count more. UnderstandingScore weights
// synthesis notes (bridge, consolidated) at SynthesisWeight and all others
// at BaseWeight, since bridging notes indicate conceptual integration more
// than raw retention does. An empty collection yields zero scores.
func (s *defaultService) Profile(notes []*domain.Note, now time.Time) domain.LearnerProfile {
	profile := domain.LearnerProfile{
		NoteCount:  len(notes),
		ComputedAt: now,
	}

	var retentionSum, retentionWeight float64
	var understandingSum, understandingWeight float64

	for _, note := range notes {
		baseline, err := lattice.Baseline(note.Type)
		if err != nil {
			continue
		}

		score := Decay(baseline, note.UpdatedAt, now, s.params.Calibration)

		retentionSum += baseline * score
		retentionWeight += baseline

		w := s.params.BaseWeight
		if note.Type == domain.NoteTypeBridge || note.Type == domain.NoteTypeConsolidated {
			w = s.params.SynthesisWeight
		}
		understandingSum += w * score
		understandingWeight += w
	}

	if retentionWeight > 0 {
		profile.RetentionScore = retentionSum / retentionWeight
	}
	if understandingWeight > 0 {
		profile.UnderstandingScore = understandingSum / understandingWeight
	}

	return profile
}
