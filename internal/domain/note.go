package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NoteType represents the maturity stage of a note in the Zettelkasten
// lifecycle. The allowed transitions between types are owned by the
// lattice package.
type NoteType string

// Possible note types, in promotion order.
const (
	NoteTypeFleeting     NoteType = "fleeting"
	NoteTypeLiterature   NoteType = "literature"
	NoteTypePermanent    NoteType = "permanent"
	NoteTypeBridge       NoteType = "bridge"
	NoteTypeConsolidated NoteType = "consolidated"
)

// Region is the coarse retention-derived classification of a note.
type Region string

// Possible region values.
const (
	RegionShortTerm Region = "short_term"
	RegionLongTerm  Region = "long_term"
)

// Note-specific validation errors
var (
	// ErrNoteIDEmpty is returned when a note ID is empty or nil.
	ErrNoteIDEmpty = errors.New("note ID cannot be empty")

	// ErrNoteUserIDEmpty is returned when a note's user ID is empty or nil.
	ErrNoteUserIDEmpty = errors.New("note user ID cannot be empty")

	// ErrNoteTitleEmpty is returned when a note's title is empty.
	ErrNoteTitleEmpty = errors.New("note title cannot be empty")

	// ErrNoteContentEmpty is returned when a note's content is empty.
	ErrNoteContentEmpty = errors.New("note content cannot be empty")

	// ErrNoteTypeInvalid is returned when a note's type is not a known lattice state.
	ErrNoteTypeInvalid = errors.New("invalid note type")

	// ErrNoteRetentionRange is returned when a note's retention is outside [0,1].
	ErrNoteRetentionRange = errors.New("note retention must be between 0 and 1")

	// ErrNoteRegionInvalid is returned when a note's region is not a known value.
	ErrNoteRegionInvalid = errors.New("invalid note region")

	// ErrNoteSelfRelated is returned when a note's related list contains its own ID.
	ErrNoteSelfRelated = errors.New("note cannot relate to itself")

	// ErrNoteVersionInvalid is returned when a note's version counter is below 1.
	ErrNoteVersionInvalid = errors.New("note version must be at least 1")
)

// Note represents a single knowledge note owned by a learner. Its type
// advances through the maturity lattice, its retention score decays with
// idle time, and it may carry an attached memory structure.
type Note struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Type           NoteType       `json:"type"`
	Tags           []string       `json:"tags"`
	ConceptID      *uuid.UUID     `json:"concept_id,omitempty"`
	CourseID       *uuid.UUID     `json:"course_id,omitempty"`
	RelatedNoteIDs []uuid.UUID    `json:"related_note_ids"`
	Retention      float64        `json:"retention"`
	MnemonicType   *StructureType `json:"mnemonic_type,omitempty"`
	Region         Region         `json:"region"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewNote creates a new Note with the given owner, title, content and type.
// It generates a new UUID for the note ID, starts the version counter at 1
// and sets the creation/update timestamps. Retention is left at zero: the
// retention model seeds it from the type's baseline weight before the note
// is persisted.
// Returns an error if validation fails.
func NewNote(userID uuid.UUID, title, content string, noteType NoteType) (*Note, error) {
	note := &Note{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          title,
		Content:        content,
		Type:           noteType,
		Tags:           []string{},
		RelatedNoteIDs: []uuid.UUID{},
		Region:         RegionShortTerm,
		Version:        1,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}

	return note, nil
}

// Validate checks if the Note has valid data.
// Returns an error if any field fails validation.
func (n *Note) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNoteIDEmpty
	}

	if n.UserID == uuid.Nil {
		return ErrNoteUserIDEmpty
	}

	if n.Title == "" {
		return ErrNoteTitleEmpty
	}

	if n.Content == "" {
		return ErrNoteContentEmpty
	}

	if !IsValidNoteType(n.Type) {
		return ErrNoteTypeInvalid
	}

	if n.Retention < 0 || n.Retention > 1 {
		return ErrNoteRetentionRange
	}

	if !isValidRegion(n.Region) {
		return ErrNoteRegionInvalid
	}

	for _, id := range n.RelatedNoteIDs {
		if id == n.ID {
			return ErrNoteSelfRelated
		}
	}

	if n.Version < 1 {
		return ErrNoteVersionInvalid
	}

	return nil
}

// UpdateContent replaces the note's title and content and bumps the
// UpdatedAt timestamp. Returns an error if the new values are invalid,
// leaving the note unchanged.
func (n *Note) UpdateContent(title, content string) error {
	origTitle, origContent := n.Title, n.Content
	n.Title = title
	n.Content = content

	if err := n.Validate(); err != nil {
		n.Title = origTitle
		n.Content = origContent
		return err
	}

	n.UpdatedAt = time.Now().UTC()
	return nil
}

// SetRelatedNotes replaces the ordered related-note list. The note's own
// ID is rejected; the order of the remaining IDs is preserved.
func (n *Note) SetRelatedNotes(ids []uuid.UUID) error {
	for _, id := range ids {
		if id == n.ID {
			return ErrNoteSelfRelated
		}
	}

	n.RelatedNoteIDs = append([]uuid.UUID{}, ids...)
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// Clone returns a deep copy of the note. Stores hand out clones so that
// readers observe a consistent snapshot regardless of later writes.
func (n *Note) Clone() *Note {
	clone := *n
	clone.Tags = append([]string{}, n.Tags...)
	clone.RelatedNoteIDs = append([]uuid.UUID{}, n.RelatedNoteIDs...)
	if n.ConceptID != nil {
		id := *n.ConceptID
		clone.ConceptID = &id
	}
	if n.CourseID != nil {
		id := *n.CourseID
		clone.CourseID = &id
	}
	if n.MnemonicType != nil {
		t := *n.MnemonicType
		clone.MnemonicType = &t
	}
	return &clone
}

// IsValidNoteType checks if the given type is a known lattice state.
func IsValidNoteType(t NoteType) bool {
	switch t {
	case NoteTypeFleeting, NoteTypeLiterature, NoteTypePermanent,
		NoteTypeBridge, NoteTypeConsolidated:
		return true
	default:
		return false
	}
}

// isValidRegion checks if the given region is a known value.
func isValidRegion(r Region) bool {
	switch r {
	case RegionShortTerm, RegionLongTerm:
		return true
	default:
		return false
	}
}
