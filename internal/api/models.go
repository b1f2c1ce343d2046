package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/service"
)

// Common request/response structures

// CreateNoteRequest defines the payload for creating a note.
type CreateNoteRequest struct {
	Title          string      `json:"title"           validate:"required,min=1,max=500"`
	Content        string      `json:"content"         validate:"required,min=1"`
	Type           string      `json:"type"            validate:"required"`
	Tags           []string    `json:"tags"            validate:"max=32,dive,min=1,max=64"`
	ConceptID      *uuid.UUID  `json:"concept_id"`
	CourseID       *uuid.UUID  `json:"course_id"`
	RelatedNoteIDs []uuid.UUID `json:"related_note_ids" validate:"max=64"`
}

// UpdateNoteRequest defines the payload for editing a note. Absent fields
// are left unchanged; tags, concept, course and relations are replaced
// when present.
type UpdateNoteRequest struct {
	Title          *string      `json:"title"   validate:"omitempty,min=1,max=500"`
	Content        *string      `json:"content" validate:"omitempty,min=1"`
	Tags           *[]string    `json:"tags"    validate:"omitempty,max=32,dive,min=1,max=64"`
	ConceptID      *uuid.UUID   `json:"concept_id"`
	SetConcept     bool         `json:"set_concept"`
	CourseID       *uuid.UUID   `json:"course_id"`
	SetCourse      bool         `json:"set_course"`
	RelatedNoteIDs *[]uuid.UUID `json:"related_note_ids" validate:"omitempty,max=64"`
}

// PromoteNoteRequest defines the payload for promoting a note.
type PromoteNoteRequest struct {
	To      string `json:"to"      validate:"required"`
	Version int    `json:"version" validate:"required,min=1"`
}

// SuggestRequest defines the payload for draft-text suggestions.
type SuggestRequest struct {
	Draft     string     `json:"draft"      validate:"required,min=1"`
	ExcludeID *uuid.UUID `json:"exclude_id"`
}

// AssignStructureRequest defines the payload for assigning a memory
// structure to a note.
type AssignStructureRequest struct {
	Type     string   `json:"type"     validate:"required,oneof=memory_palace story_method concept_map"`
	Name     string   `json:"name"     validate:"omitempty,min=1,max=200"`
	Room     string   `json:"room"     validate:"omitempty,min=1,max=200"`
	Location string   `json:"location" validate:"omitempty,min=1,max=200"`
	Weight   *float64 `json:"weight"`
}

// NoteResponse represents the response data for a note.
type NoteResponse struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Content        string      `json:"content"`
	Type           string      `json:"type"`
	Tags           []string    `json:"tags"`
	ConceptID      *uuid.UUID  `json:"concept_id,omitempty"`
	CourseID       *uuid.UUID  `json:"course_id,omitempty"`
	RelatedNoteIDs []uuid.UUID `json:"related_note_ids"`
	Retention      float64     `json:"retention"`
	Region         string      `json:"region"`
	MnemonicType   *string     `json:"mnemonic_type,omitempty"`
	Version        int         `json:"version"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// noteToResponse converts a domain.Note to a NoteResponse.
func noteToResponse(note *domain.Note) NoteResponse {
	resp := NoteResponse{
		ID:             note.ID,
		Title:          note.Title,
		Content:        note.Content,
		Type:           string(note.Type),
		Tags:           note.Tags,
		ConceptID:      note.ConceptID,
		CourseID:       note.CourseID,
		RelatedNoteIDs: note.RelatedNoteIDs,
		Retention:      note.Retention,
		Region:         string(note.Region),
		Version:        note.Version,
		CreatedAt:      note.CreatedAt,
		UpdatedAt:      note.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.RelatedNoteIDs == nil {
		resp.RelatedNoteIDs = []uuid.UUID{}
	}
	if note.MnemonicType != nil {
		mnemonic := string(*note.MnemonicType)
		resp.MnemonicType = &mnemonic
	}
	return resp
}

// StructureResponse represents the response data for a memory structure.
type StructureResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	CourseID        *uuid.UUID `json:"course_id,omitempty"`
	NodeCount       int        `json:"node_count"`
	ConnectionCount int        `json:"connection_count"`
	Region          string     `json:"region"`
	X               float64    `json:"x"`
	Y               float64    `json:"y"`
	Z               float64    `json:"z"`
	LastModified    time.Time  `json:"last_modified"`
	CreatedAt       time.Time  `json:"created_at"`
}

// structureToResponse converts a domain.MemoryStructure to a StructureResponse.
func structureToResponse(structure *domain.MemoryStructure) StructureResponse {
	return StructureResponse{
		ID:              structure.ID,
		Name:            structure.Name,
		Type:            string(structure.Type),
		CourseID:        structure.CourseID,
		NodeCount:       structure.NodeCount,
		ConnectionCount: structure.ConnectionCount,
		Region:          string(structure.Region),
		X:               structure.X,
		Y:               structure.Y,
		Z:               structure.Z,
		LastModified:    structure.LastModified,
		CreatedAt:       structure.CreatedAt,
	}
}

// MemoryNodeResponse represents the response data for a memory node.
type MemoryNodeResponse struct {
	ID           uuid.UUID  `json:"id"`
	SourceNoteID *uuid.UUID `json:"source_note_id,omitempty"`
	Content      string     `json:"content"`
	Description  string     `json:"description"`
	Position     int        `json:"position"`
	Orphaned     bool       `json:"orphaned"`
	CreatedAt    time.Time  `json:"created_at"`
}

// memoryNodeToResponse converts a domain.MemoryNode to a MemoryNodeResponse.
func memoryNodeToResponse(node *domain.MemoryNode) MemoryNodeResponse {
	return MemoryNodeResponse{
		ID:           node.ID,
		SourceNoteID: node.SourceNoteID,
		Content:      node.Content,
		Description:  node.Description,
		Position:     node.Position,
		Orphaned:     node.Orphaned(),
		CreatedAt:    node.CreatedAt,
	}
}

// ProfileResponse represents the response data for a learner profile.
type ProfileResponse struct {
	RetentionScore     float64   `json:"retention_score"`
	UnderstandingScore float64   `json:"understanding_score"`
	NoteCount          int       `json:"note_count"`
	ComputedAt         time.Time `json:"computed_at"`
}

// SuggestionResponse represents one related-note suggestion.
type SuggestionResponse struct {
	NoteID     uuid.UUID `json:"note_id"`
	Title      string    `json:"title"`
	TokenCount int       `json:"token_count"`
}

// suggestionsToResponse converts service suggestions to response DTOs.
func suggestionsToResponse(suggestions []service.Suggestion) []SuggestionResponse {
	result := make([]SuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		result = append(result, SuggestionResponse(s))
	}
	return result
}
