// Package index maintains the inverted indices used for note filtering:
// tag, concept and course each map to the set of note IDs carrying them.
// The index is updated transactionally on every note mutation and can be
// rebuilt from the note store at startup.
package index

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
)

// IDSet is a set of note IDs.
type IDSet map[uuid.UUID]struct{}

// Index holds the three inverted indices behind a single lock so that one
// note mutation updates all of them atomically.
type Index struct {
	mu        sync.RWMutex
	byTag     map[string]IDSet
	byConcept map[uuid.UUID]IDSet
	byCourse  map[uuid.UUID]IDSet
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		byTag:     make(map[string]IDSet),
		byConcept: make(map[uuid.UUID]IDSet),
		byCourse:  make(map[uuid.UUID]IDSet),
	}
}

// Apply updates the indices for one note mutation: before is the note's
// previous state (nil on create), after its new state (nil on delete).
// Old entries are removed and new entries added under one lock.
func (i *Index) Apply(before, after *domain.Note) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if before != nil {
		i.remove(before)
	}
	if after != nil {
		i.add(after)
	}
}

// Rebuild replaces the full index contents from the given notes.
func (i *Index) Rebuild(notes []*domain.Note) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.byTag = make(map[string]IDSet)
	i.byConcept = make(map[uuid.UUID]IDSet)
	i.byCourse = make(map[uuid.UUID]IDSet)

	for _, note := range notes {
		i.add(note)
	}
}

// add indexes a note. Caller must hold the write lock.
func (i *Index) add(note *domain.Note) {
	for _, tag := range note.Tags {
		set, ok := i.byTag[tag]
		if !ok {
			set = make(IDSet)
			i.byTag[tag] = set
		}
		set[note.ID] = struct{}{}
	}

	if note.ConceptID != nil {
		set, ok := i.byConcept[*note.ConceptID]
		if !ok {
			set = make(IDSet)
			i.byConcept[*note.ConceptID] = set
		}
		set[note.ID] = struct{}{}
	}

	if note.CourseID != nil {
		set, ok := i.byCourse[*note.CourseID]
		if !ok {
			set = make(IDSet)
			i.byCourse[*note.CourseID] = set
		}
		set[note.ID] = struct{}{}
	}
}

// remove unindexes a note. Caller must hold the write lock.
func (i *Index) remove(note *domain.Note) {
	for _, tag := range note.Tags {
		if set, ok := i.byTag[tag]; ok {
			delete(set, note.ID)
			if len(set) == 0 {
				delete(i.byTag, tag)
			}
		}
	}

	if note.ConceptID != nil {
		if set, ok := i.byConcept[*note.ConceptID]; ok {
			delete(set, note.ID)
			if len(set) == 0 {
				delete(i.byConcept, *note.ConceptID)
			}
		}
	}

	if note.CourseID != nil {
		if set, ok := i.byCourse[*note.CourseID]; ok {
			delete(set, note.ID)
			if len(set) == 0 {
				delete(i.byCourse, *note.CourseID)
			}
		}
	}
}

// NotesWithAllTags returns the IDs of notes carrying every one of the given
// tags (set intersection). An empty tag list returns nil, meaning "no tag
// constraint". The returned set is a copy.
func (i *Index) NotesWithAllTags(tags []string) IDSet {
	if len(tags) == 0 {
		return nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	result := make(IDSet)
	first, ok := i.byTag[tags[0]]
	if !ok {
		return result
	}
	for id := range first {
		result[id] = struct{}{}
	}

	for _, tag := range tags[1:] {
		set, ok := i.byTag[tag]
		if !ok {
			return make(IDSet)
		}
		for id := range result {
			if _, ok := set[id]; !ok {
				delete(result, id)
			}
		}
	}

	return result
}

// NotesForConcept returns a copy of the ID set for the given concept.
func (i *Index) NotesForConcept(conceptID uuid.UUID) IDSet {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return copySet(i.byConcept[conceptID])
}

// NotesForCourse returns a copy of the ID set for the given course.
func (i *Index) NotesForCourse(courseID uuid.UUID) IDSet {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return copySet(i.byCourse[courseID])
}

// Tags returns the distinct indexed tags in lexical order.
func (i *Index) Tags() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	tags := make([]string, 0, len(i.byTag))
	for tag := range i.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func copySet(set IDSet) IDSet {
	result := make(IDSet, len(set))
	for id := range set {
		result[id] = struct{}{}
	}
	return result
}
