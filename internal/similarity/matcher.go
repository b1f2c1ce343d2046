// Package similarity implements lexical-overlap related-note matching for
// draft text, plus the cancellable debounce trigger that keeps the match
// from running on every keystroke. Matching is a pure function over a
// corpus snapshot; it is advisory and never mutates candidates.
package similarity

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Matching defaults.
const (
	// DefaultLimit is the maximum number of matches returned.
	DefaultLimit = 5

	// minTokenLength is the shortest token that carries signal; shorter
	// tokens act as a crude stop-word filter and are dropped.
	minTokenLength = 5

	// minQualifyingTokens is the fewest qualifying tokens a draft needs
	// before matching runs at all.
	minQualifyingTokens = 2
)

// Candidate is one existing note considered for matching.
type Candidate struct {
	ID        uuid.UUID
	Title     string
	Content   string
	UpdatedAt time.Time
}

// Match is a candidate that shares at least one qualifying token with the
// draft, with its rank inputs.
type Match struct {
	ID         uuid.UUID
	TokenCount int
	UpdatedAt  time.Time
}

// Options controls matching behavior.
type Options struct {
	// Limit caps the number of matches; zero or negative uses DefaultLimit.
	Limit int

	// ExcludeID drops one candidate, used to keep a note being edited out
	// of its own suggestions.
	ExcludeID uuid.UUID
}

func (o Options) limit() int {
	if o.Limit <= 0 {
		return DefaultLimit
	}
	return o.Limit
}

// Tokenize splits draft text on whitespace, lowercases it and keeps the
// distinct tokens long enough to carry signal, preserving first-seen order.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLength {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}

	return tokens
}

// Rank scores the corpus against the draft text and returns the top
// matches: candidates sharing at least one qualifying token, ordered by
// matching-token count descending with ties broken by most recently
// updated. A draft with fewer than two qualifying tokens yields no matches
// (too little signal).
func Rank(draft string, corpus []Candidate, opts Options) []Match {
	tokens := Tokenize(draft)
	if len(tokens) < minQualifyingTokens {
		return nil
	}

	matches := make([]Match, 0, len(corpus))
	for _, c := range corpus {
		if c.ID == opts.ExcludeID {
			continue
		}

		haystack := strings.ToLower(c.Title + " " + c.Content)
		count := 0
		for _, token := range tokens {
			if strings.Contains(haystack, token) {
				count++
			}
		}

		if count > 0 {
			matches = append(matches, Match{
				ID:         c.ID,
				TokenCount: count,
				UpdatedAt:  c.UpdatedAt,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].TokenCount != matches[j].TokenCount {
			return matches[i].TokenCount > matches[j].TokenCount
		}
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})

	if limit := opts.limit(); len(matches) > limit {
		matches = matches[:limit]
	}

	return matches
}
