package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewNote(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	title := "Zettelkasten Method"
	content := "Atomic notes linked by context, not hierarchy."

	note, err := NewNote(userID, title, content, NoteTypeFleeting)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if note.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if note.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, note.UserID)
	}

	if note.Type != NoteTypeFleeting {
		t.Errorf("Expected type %s, got %s", NoteTypeFleeting, note.Type)
	}

	if note.Region != RegionShortTerm {
		t.Errorf("Expected region %s, got %s", RegionShortTerm, note.Region)
	}

	if note.Version != 1 {
		t.Errorf("Expected version 1, got %d", note.Version)
	}

	if note.CreatedAt.IsZero() || note.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}

	// Invalid inputs
	if _, err := NewNote(uuid.Nil, title, content, NoteTypeFleeting); err != ErrNoteUserIDEmpty {
		t.Errorf("Expected error %v, got %v", ErrNoteUserIDEmpty, err)
	}
	if _, err := NewNote(userID, "", content, NoteTypeFleeting); err != ErrNoteTitleEmpty {
		t.Errorf("Expected error %v, got %v", ErrNoteTitleEmpty, err)
	}
	if _, err := NewNote(userID, title, "", NoteTypeFleeting); err != ErrNoteContentEmpty {
		t.Errorf("Expected error %v, got %v", ErrNoteContentEmpty, err)
	}
	if _, err := NewNote(userID, title, content, "archived"); err != ErrNoteTypeInvalid {
		t.Errorf("Expected error %v, got %v", ErrNoteTypeInvalid, err)
	}
}

func TestNoteValidate(t *testing.T) {
	t.Parallel()
	validNote := Note{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		Title:   "Test note",
		Content: "Some content",
		Type:    NoteTypeLiterature,
		Region:  RegionShortTerm,
		Version: 1,
	}

	if err := validNote.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalidNote := validNote
	invalidNote.Retention = 1.2
	if err := invalidNote.Validate(); err != ErrNoteRetentionRange {
		t.Errorf("Expected error %v, got %v", ErrNoteRetentionRange, err)
	}

	invalidNote = validNote
	invalidNote.Retention = -0.1
	if err := invalidNote.Validate(); err != ErrNoteRetentionRange {
		t.Errorf("Expected error %v, got %v", ErrNoteRetentionRange, err)
	}

	invalidNote = validNote
	invalidNote.RelatedNoteIDs = []uuid.UUID{validNote.ID}
	if err := invalidNote.Validate(); err != ErrNoteSelfRelated {
		t.Errorf("Expected error %v, got %v", ErrNoteSelfRelated, err)
	}

	invalidNote = validNote
	invalidNote.Region = "medium_term"
	if err := invalidNote.Validate(); err != ErrNoteRegionInvalid {
		t.Errorf("Expected error %v, got %v", ErrNoteRegionInvalid, err)
	}

	invalidNote = validNote
	invalidNote.Version = 0
	if err := invalidNote.Validate(); err != ErrNoteVersionInvalid {
		t.Errorf("Expected error %v, got %v", ErrNoteVersionInvalid, err)
	}
}

func TestNoteUpdateContent(t *testing.T) {
	t.Parallel()
	note, err := NewNote(uuid.New(), "Title", "Content", NoteTypeFleeting)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	origUpdatedAt := note.UpdatedAt
	if err := note.UpdateContent("New title", "New content"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if note.Title != "New title" || note.Content != "New content" {
		t.Error("Expected content to be updated")
	}
	if note.UpdatedAt.Before(origUpdatedAt) {
		t.Error("Expected UpdatedAt to be bumped")
	}

	// Invalid update leaves the note unchanged.
	if err := note.UpdateContent("", "Other content"); err != ErrNoteTitleEmpty {
		t.Errorf("Expected error %v, got %v", ErrNoteTitleEmpty, err)
	}
	if note.Title != "New title" || note.Content != "New content" {
		t.Error("Expected failed update to restore original content")
	}
}

func TestNoteSetRelatedNotes(t *testing.T) {
	t.Parallel()
	note, err := NewNote(uuid.New(), "Title", "Content", NoteTypeFleeting)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	other := uuid.New()
	if err := note.SetRelatedNotes([]uuid.UUID{other}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if len(note.RelatedNoteIDs) != 1 || note.RelatedNoteIDs[0] != other {
		t.Error("Expected related notes to be set")
	}

	if err := note.SetRelatedNotes([]uuid.UUID{note.ID}); err != ErrNoteSelfRelated {
		t.Errorf("Expected error %v, got %v", ErrNoteSelfRelated, err)
	}
}

func TestNoteClone(t *testing.T) {
	t.Parallel()
	conceptID := uuid.New()
	note, err := NewNote(uuid.New(), "Title", "Content", NoteTypeFleeting)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	note.Tags = []string{"biology"}
	note.ConceptID = &conceptID

	clone := note.Clone()
	clone.Tags[0] = "chemistry"
	*clone.ConceptID = uuid.New()

	if note.Tags[0] != "biology" {
		t.Error("Expected clone tags to be independent")
	}
	if *note.ConceptID != conceptID {
		t.Error("Expected clone concept reference to be independent")
	}
}
