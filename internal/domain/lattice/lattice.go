// Package lattice defines the fixed directed acyclic promotion graph over
// note maturity types and validates transitions along it. Each state
// carries a baseline retention weight used to seed and floor the retention
// model.
package lattice

import (
	"errors"
	"fmt"

	"github.com/noetic/noospace-api/internal/domain"
)

// Lattice errors
var (
	// ErrUnknownType is returned when a type is not a state of the lattice.
	ErrUnknownType = errors.New("unknown note type")

	// ErrInvalidTransition is returned when a promotion does not follow a
	// designated next-step edge of the lattice. Skipping states, demoting,
	// and promoting a terminal state are all invalid.
	ErrInvalidTransition = errors.New("invalid note type transition")
)

// baselines holds the fixed baseline retention weight of each state.
var baselines = map[domain.NoteType]float64{
	domain.NoteTypeFleeting:     0.2,
	domain.NoteTypeLiterature:   0.5,
	domain.NoteTypePermanent:    0.75,
	domain.NoteTypeBridge:       0.7,
	domain.NoteTypeConsolidated: 0.9,
}

// nextSteps holds the designated promotion edges. Every non-terminal state
// has exactly one next step; BRIDGE and CONSOLIDATED are terminal. BRIDGE
// feeds CONSOLIDATED only through a separate synthesis action, never a
// promotion edge, so CONSOLIDATED cannot be promoted into directly.
var nextSteps = map[domain.NoteType][]domain.NoteType{
	domain.NoteTypeFleeting:     {domain.NoteTypeLiterature},
	domain.NoteTypeLiterature:   {domain.NoteTypePermanent},
	domain.NoteTypePermanent:    {domain.NoteTypeBridge},
	domain.NoteTypeBridge:       {},
	domain.NoteTypeConsolidated: {},
}

// Baseline returns the baseline retention weight for the given state.
// Returns ErrUnknownType if the type is not a lattice state.
func Baseline(t domain.NoteType) (float64, error) {
	weight, ok := baselines[t]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return weight, nil
}

// NextSteps returns the designated promotion targets for the given state.
// Terminal states return an empty slice. The returned slice is a copy.
func NextSteps(t domain.NoteType) []domain.NoteType {
	return append([]domain.NoteType{}, nextSteps[t]...)
}

// IsTerminal reports whether the given state has no promotion edges.
func IsTerminal(t domain.NoteType) bool {
	return len(nextSteps[t]) == 0
}

// ValidatePromotion checks that promoting from one state to another follows
// a designated next-step edge. Returns ErrUnknownType if either state is
// not part of the lattice, and ErrInvalidTransition for any edge that does
// not exist. There is no demotion path.
func ValidatePromotion(from, to domain.NoteType) error {
	steps, ok := nextSteps[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, from)
	}
	if _, ok := baselines[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, to)
	}

	for _, step := range steps {
		if step == to {
			return nil
		}
	}

	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// ReseedFloor returns the retention value after a promotion to the given
// state: the current value raised to the new state's baseline when it is
// below it. Retention ownership stays with the retention model; the
// lattice only reports the floor.
func ReseedFloor(current float64, to domain.NoteType) float64 {
	weight, ok := baselines[to]
	if !ok {
		return current
	}
	if current < weight {
		return weight
	}
	return current
}
