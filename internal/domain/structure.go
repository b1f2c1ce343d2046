package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StructureType identifies which spatial/graph overlay a memory structure
// applies to its notes.
type StructureType string

// Possible structure types.
const (
	StructureMemoryPalace StructureType = "memory_palace"
	StructureStoryMethod  StructureType = "story_method"
	StructureConceptMap   StructureType = "concept_map"
)

// MemoryStructure validation errors
var (
	ErrStructureIDEmpty     = errors.New("structure ID cannot be empty")
	ErrStructureUserIDEmpty = errors.New("structure user ID cannot be empty")
	ErrStructureNameEmpty   = errors.New("structure name cannot be empty")
	ErrStructureTypeInvalid = errors.New("invalid structure type")
	ErrStructureCountRange  = errors.New("structure counts cannot be negative")
)

// MemoryStructure is the top-level record of a memory overlay built for a
// note: a palace, a story chain, or a concept map. Position is only used
// for layout in the noospace view, never for semantics.
type MemoryStructure struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"user_id"`
	Name            string        `json:"name"`
	Type            StructureType `json:"type"`
	CourseID        *uuid.UUID    `json:"course_id,omitempty"`
	NodeCount       int           `json:"node_count"`
	ConnectionCount int           `json:"connection_count"`
	Region          Region        `json:"region"`
	X               float64       `json:"x"`
	Y               float64       `json:"y"`
	Z               float64       `json:"z"`
	LastModified    time.Time     `json:"last_modified"`
	CreatedAt       time.Time     `json:"created_at"`
}

// NewMemoryStructure creates a new MemoryStructure with the given owner,
// name and type. Counts start at zero and the region starts short-term;
// both are maintained by the structure assigner.
// Returns an error if validation fails.
func NewMemoryStructure(
	userID uuid.UUID,
	name string,
	structureType StructureType,
	courseID *uuid.UUID,
) (*MemoryStructure, error) {
	structure := &MemoryStructure{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		Type:         structureType,
		CourseID:     courseID,
		Region:       RegionShortTerm,
		LastModified: time.Now().UTC(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := structure.Validate(); err != nil {
		return nil, err
	}

	return structure, nil
}

// Validate checks if the MemoryStructure has valid data.
func (s *MemoryStructure) Validate() error {
	if s.ID == uuid.Nil {
		return ErrStructureIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrStructureUserIDEmpty
	}

	if s.Name == "" {
		return ErrStructureNameEmpty
	}

	if !IsValidStructureType(s.Type) {
		return ErrStructureTypeInvalid
	}

	if s.NodeCount < 0 || s.ConnectionCount < 0 {
		return ErrStructureCountRange
	}

	if !isValidRegion(s.Region) {
		return ErrNoteRegionInvalid
	}

	return nil
}

// Touch records a modification to the structure.
func (s *MemoryStructure) Touch() {
	s.LastModified = time.Now().UTC()
}

// IsValidStructureType checks if the given type is a known structure type.
func IsValidStructureType(t StructureType) bool {
	switch t {
	case StructureMemoryPalace, StructureStoryMethod, StructureConceptMap:
		return true
	default:
		return false
	}
}
