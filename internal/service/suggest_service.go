package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/similarity"
	"github.com/noetic/noospace-api/internal/store"
)

// Suggestion is one related-note suggestion for a draft.
type Suggestion struct {
	NoteID     uuid.UUID `json:"noteId"`
	Title      string    `json:"title"`
	TokenCount int       `json:"tokenCount"`
}

// SuggestService proposes related notes for in-progress draft text.
type SuggestService interface {
	// SuggestRelated ranks the user's notes by lexical overlap with the
	// draft. excludeID keeps a note being edited out of its own results;
	// pass uuid.Nil for new drafts. Suggestions are advisory: storage
	// failures yield an empty list, never an error.
	SuggestRelated(ctx context.Context, userID uuid.UUID, draft string, excludeID uuid.UUID) []Suggestion
}

// suggestServiceImpl implements the SuggestService interface.
type suggestServiceImpl struct {
	noteStore store.NoteStore
	limit     int
	logger    *slog.Logger
}

// NewSuggestService creates a new SuggestService. A limit of zero or less
// falls back to the matcher's default.
func NewSuggestService(noteStore store.NoteStore, limit int, logger *slog.Logger) (SuggestService, error) {
	if noteStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "noteStore cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &suggestServiceImpl{
		noteStore: noteStore,
		limit:     limit,
		logger:    logger.With("component", "suggest_service"),
	}, nil
}

// SuggestRelated implements SuggestService.SuggestRelated.
func (s *suggestServiceImpl) SuggestRelated(
	ctx context.Context,
	userID uuid.UUID,
	draft string,
	excludeID uuid.UUID,
) []Suggestion {
	notes, err := s.noteStore.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("suggestion corpus unavailable",
			"error", err,
			"user_id", userID)
		return []Suggestion{}
	}

	titles := make(map[uuid.UUID]string, len(notes))
	corpus := make([]similarity.Candidate, 0, len(notes))
	for _, note := range notes {
		titles[note.ID] = note.Title
		corpus = append(corpus, similarity.Candidate{
			ID:        note.ID,
			Title:     note.Title,
			Content:   note.Content,
			UpdatedAt: note.UpdatedAt,
		})
	}

	matches := similarity.Rank(draft, corpus, similarity.Options{
		Limit:     s.limit,
		ExcludeID: excludeID,
	})

	suggestions := make([]Suggestion, 0, len(matches))
	for _, match := range matches {
		suggestions = append(suggestions, Suggestion{
			NoteID:     match.ID,
			Title:      titles[match.ID],
			TokenCount: match.TokenCount,
		})
	}
	return suggestions
}
