package domain

import "time"

// LearnerProfile is the aggregate "digital twin" derived from a user's full
// note collection. It is always recomputed from current note state and
// cached for display, never persisted as ground truth.
type LearnerProfile struct {
	RetentionScore     float64   `json:"retention_score"`
	UnderstandingScore float64   `json:"understanding_score"`
	NoteCount          int       `json:"note_count"`
	ComputedAt         time.Time `json:"computed_at"`
}
