// Package query composes the inverted indices and the note store into
// filtered, ordered note lists. Filters combine with AND semantics in a
// fixed precedence: type, then free-text search, then tag intersection,
// then course and concept pinning. Tag, course and concept constraints
// resolve through the index. Filtering preserves the stable input order
// of the store; only an explicitly requested sort reorders.
package query

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
	"github.com/noetic/noospace-api/internal/index"
)

// Sort identifies an explicitly requested output order.
type Sort string

// Possible sort keys. SortNone keeps the store's stable input order.
const (
	SortNone      Sort = ""
	SortRecency   Sort = "recency"
	SortRetention Sort = "retention"
)

// TypeAll matches every note type in a filter.
const TypeAll = "all"

// Filter describes one note-list query.
type Filter struct {
	// Type filters on exact note type; empty or "all" matches everything.
	Type string

	// Query is a case-insensitive substring matched against title or
	// content.
	Query string

	// Tags requires the note to carry every listed tag.
	Tags []string

	// CourseID pins the list to one course when non-nil.
	CourseID *uuid.UUID

	// ConceptID pins the list to one concept when non-nil.
	ConceptID *uuid.UUID

	// Sort reorders the output when set; filtering itself never reorders.
	Sort Sort
}

// Engine filters and orders note lists.
type Engine struct {
	index *index.Index
}

// New creates an Engine over the given index.
func New(idx *index.Index) *Engine {
	return &Engine{index: idx}
}

// Apply runs the filter chain over notes in their given order and then
// applies the requested sort, if any. The input slice is not modified.
func (e *Engine) Apply(notes []*domain.Note, f Filter) []*domain.Note {
	result := make([]*domain.Note, 0, len(notes))

	var tagged index.IDSet
	if len(f.Tags) > 0 {
		tagged = e.index.NotesWithAllTags(f.Tags)
	}

	var inCourse index.IDSet
	if f.CourseID != nil {
		inCourse = e.index.NotesForCourse(*f.CourseID)
	}

	var inConcept index.IDSet
	if f.ConceptID != nil {
		inConcept = e.index.NotesForConcept(*f.ConceptID)
	}

	needle := strings.ToLower(f.Query)

	for _, note := range notes {
		if f.Type != "" && f.Type != TypeAll && string(note.Type) != f.Type {
			continue
		}

		if needle != "" &&
			!strings.Contains(strings.ToLower(note.Title), needle) &&
			!strings.Contains(strings.ToLower(note.Content), needle) {
			continue
		}

		if tagged != nil {
			if _, ok := tagged[note.ID]; !ok {
				continue
			}
		}

		if inCourse != nil {
			if _, ok := inCourse[note.ID]; !ok {
				continue
			}
		}

		if inConcept != nil {
			if _, ok := inConcept[note.ID]; !ok {
				continue
			}
		}

		result = append(result, note)
	}

	switch f.Sort {
	case SortRecency:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		})
	case SortRetention:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Retention > result[j].Retention
		})
	}

	return result
}
