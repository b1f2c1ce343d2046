package retention

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/noetic/noospace-api/internal/domain"
)

func newTestNote(t *testing.T, noteType domain.NoteType, updatedAt time.Time) *domain.Note {
	t.Helper()
	note, err := domain.NewNote(uuid.New(), "Zettelkasten Method", "How the Zettelkasten organizes knowledge.", noteType)
	if err != nil {
		t.Fatalf("failed to create note: %v", err)
	}
	note.UpdatedAt = updatedAt
	return note
}

func TestSeed(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()

	seed, err := svc.Seed(domain.NoteTypeLiterature)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seed != 0.5 {
		t.Errorf("Seed(literature) = %v, want 0.5", seed)
	}

	if _, err := svc.Seed("archived"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestNoteRetentionUsesBaselineFraction(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Now().UTC()

	// 7 idle days: 82% of the type baseline.
	note := newTestNote(t, domain.NoteTypePermanent, now.Add(-7*24*time.Hour))
	got := svc.NoteRetention(note, now)
	want := 0.75 * 0.82
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("NoteRetention = %v, want %v", got, want)
	}
}

func TestRegionFor(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()

	if got := svc.RegionFor(0.7); got != domain.RegionLongTerm {
		t.Errorf("RegionFor(0.7) = %v, want long_term", got)
	}
	if got := svc.RegionFor(0.69); got != domain.RegionShortTerm {
		t.Errorf("RegionFor(0.69) = %v, want short_term", got)
	}

	// Threshold is configurable, not hard-coded.
	custom := NewServiceWithParams(NewParams(ParamsConfig{RegionThreshold: 0.65}))
	if got := custom.RegionFor(0.66); got != domain.RegionLongTerm {
		t.Errorf("custom RegionFor(0.66) = %v, want long_term", got)
	}
}

func TestProfileEmpty(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()

	profile := svc.Profile(nil, time.Now().UTC())
	if profile.RetentionScore != 0 || profile.UnderstandingScore != 0 {
		t.Errorf("empty profile = %+v, want zero scores", profile)
	}
	if profile.NoteCount != 0 {
		t.Errorf("empty profile note count = %d, want 0", profile.NoteCount)
	}
}

func TestProfileWeighting(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Now().UTC()

	// Fresh notes so each note's retention equals its baseline exactly.
	fleeting := newTestNote(t, domain.NoteTypeFleeting, now)
	consolidated := newTestNote(t, domain.NoteTypeConsolidated, now)
	notes := []*domain.Note{fleeting, consolidated}

	profile := svc.Profile(notes, now)

	// Retention: baseline-weighted mean of baselines.
	wantRetention := (0.2*0.2 + 0.9*0.9) / (0.2 + 0.9)
	if math.Abs(profile.RetentionScore-wantRetention) > 1e-9 {
		t.Errorf("RetentionScore = %v, want %v", profile.RetentionScore, wantRetention)
	}

	// Understanding: synthesis notes weigh 1.0, others 0.5.
	wantUnderstanding := (0.5*0.2 + 1.0*0.9) / (0.5 + 1.0)
	if math.Abs(profile.UnderstandingScore-wantUnderstanding) > 1e-9 {
		t.Errorf("UnderstandingScore = %v, want %v", profile.UnderstandingScore, wantUnderstanding)
	}

	if profile.NoteCount != 2 {
		t.Errorf("NoteCount = %d, want 2", profile.NoteCount)
	}
}
