package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Palace hierarchy validation errors
var (
	ErrPalaceIDEmpty         = errors.New("palace ID cannot be empty")
	ErrPalaceUserIDEmpty     = errors.New("palace user ID cannot be empty")
	ErrPalaceNameEmpty       = errors.New("palace name cannot be empty")
	ErrRoomIDEmpty           = errors.New("room ID cannot be empty")
	ErrRoomPalaceIDEmpty     = errors.New("room palace ID cannot be empty")
	ErrRoomNameEmpty         = errors.New("room name cannot be empty")
	ErrMemoryNodeIDEmpty     = errors.New("memory node ID cannot be empty")
	ErrMemoryNodeUserEmpty   = errors.New("memory node user ID cannot be empty")
	ErrMemoryNodeContent     = errors.New("memory node content cannot be empty")
	ErrPalaceNodeIDEmpty     = errors.New("palace node ID cannot be empty")
	ErrPalaceNodeRoomEmpty   = errors.New("palace node room ID cannot be empty")
	ErrPalaceNodeTargetEmpty = errors.New("palace node memory node ID cannot be empty")
	ErrPalaceNodeLocation    = errors.New("palace node location cannot be empty")
)

// Palace is a memory palace owned by a user, usually one per course.
// It owns zero or more rooms.
type Palace struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	CourseID  *uuid.UUID `json:"course_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewPalace creates a new Palace for the given owner and optional course.
func NewPalace(userID uuid.UUID, name string, courseID *uuid.UUID) (*Palace, error) {
	palace := &Palace{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}

	if err := palace.Validate(); err != nil {
		return nil, err
	}

	return palace, nil
}

// Validate checks if the Palace has valid data.
func (p *Palace) Validate() error {
	if p.ID == uuid.Nil {
		return ErrPalaceIDEmpty
	}

	if p.UserID == uuid.Nil {
		return ErrPalaceUserIDEmpty
	}

	if p.Name == "" {
		return ErrPalaceNameEmpty
	}

	return nil
}

// Room is a location grouping inside a palace; it owns zero or more
// palace nodes.
type Room struct {
	ID        uuid.UUID `json:"id"`
	PalaceID  uuid.UUID `json:"palace_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRoom creates a new Room inside the given palace.
func NewRoom(palaceID uuid.UUID, name string) (*Room, error) {
	room := &Room{
		ID:        uuid.New(),
		PalaceID:  palaceID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := room.Validate(); err != nil {
		return nil, err
	}

	return room, nil
}

// Validate checks if the Room has valid data.
func (r *Room) Validate() error {
	if r.ID == uuid.Nil {
		return ErrRoomIDEmpty
	}

	if r.PalaceID == uuid.Nil {
		return ErrRoomPalaceIDEmpty
	}

	if r.Name == "" {
		return ErrRoomNameEmpty
	}

	return nil
}

// MemoryNode carries a snapshot of a note's content for placement in a
// palace. SourceNoteID is a weak back-reference: deleting the source note
// nulls it (by default) and the node keeps its last snapshot, so the
// structure outlives the note.
type MemoryNode struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	SourceNoteID *uuid.UUID `json:"source_note_id,omitempty"`
	Content      string     `json:"content"`
	Description  string     `json:"description"`
	Position     int        `json:"position"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewMemoryNode creates a MemoryNode snapshotting the given note content.
func NewMemoryNode(
	userID uuid.UUID,
	sourceNoteID uuid.UUID,
	content, description string,
	position int,
) (*MemoryNode, error) {
	source := sourceNoteID
	node := &MemoryNode{
		ID:           uuid.New(),
		UserID:       userID,
		SourceNoteID: &source,
		Content:      content,
		Description:  description,
		Position:     position,
		CreatedAt:    time.Now().UTC(),
	}

	if err := node.Validate(); err != nil {
		return nil, err
	}

	return node, nil
}

// Validate checks if the MemoryNode has valid data.
func (n *MemoryNode) Validate() error {
	if n.ID == uuid.Nil {
		return ErrMemoryNodeIDEmpty
	}

	if n.UserID == uuid.Nil {
		return ErrMemoryNodeUserEmpty
	}

	if n.Content == "" {
		return ErrMemoryNodeContent
	}

	return nil
}

// Orphaned reports whether the node's source note has been deleted.
func (n *MemoryNode) Orphaned() bool {
	return n.SourceNoteID == nil
}

// PalaceNode places exactly one memory node at a named location inside a
// room.
type PalaceNode struct {
	ID           uuid.UUID `json:"id"`
	RoomID       uuid.UUID `json:"room_id"`
	MemoryNodeID uuid.UUID `json:"memory_node_id"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewPalaceNode places a memory node at a location inside a room.
func NewPalaceNode(roomID, memoryNodeID uuid.UUID, location string) (*PalaceNode, error) {
	node := &PalaceNode{
		ID:           uuid.New(),
		RoomID:       roomID,
		MemoryNodeID: memoryNodeID,
		Location:     location,
		CreatedAt:    time.Now().UTC(),
	}

	if err := node.Validate(); err != nil {
		return nil, err
	}

	return node, nil
}

// Validate checks if the PalaceNode has valid data.
func (n *PalaceNode) Validate() error {
	if n.ID == uuid.Nil {
		return ErrPalaceNodeIDEmpty
	}

	if n.RoomID == uuid.Nil {
		return ErrPalaceNodeRoomEmpty
	}

	if n.MemoryNodeID == uuid.Nil {
		return ErrPalaceNodeTargetEmpty
	}

	if n.Location == "" {
		return ErrPalaceNodeLocation
	}

	return nil
}
