package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/mitsukeru/internal/models"
	"github.com/hyperjump/mitsukeru/internal/vocab"
)

type fakeTrending struct {
	terms    []string
	err      error
	recorded []string
}

func (f *fakeTrending) Top(_ context.Context, n int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if n > len(f.terms) {
		n = len(f.terms)
	}
	return f.terms[:n], nil
}

func (f *fakeTrending) Record(_ context.Context, q string) error {
	f.recorded = append(f.recorded, q)
	return f.err
}

func corpus() []models.IndexedDocument {
	return []models.IndexedDocument{
		{
			ID: "p1", Title: "Samsung Galaxy S24", Brand: "Samsung",
			Category: "Electronics", Tags: []string{"phone", "android"}, IsActive: true,
		},
		{
			ID: "p2", Title: "Samsung QLED TV", Brand: "Samsung",
			Category: "Electronics", Tags: []string{"tv"}, IsActive: true,
		},
		{
			ID: "p3", Title: "Running Shoes", Brand: "Nike",
			Category: "Sports", Tags: []string{"shoes"}, IsActive: true,
		},
	}
}

func newTestEngine(t *testing.T, trending TrendingSource) *Engine {
	t.Helper()
	e := NewEngine(vocab.NewRegistry(nil), trending, nil)
	e.Rebuild(corpus())
	return e
}

func textsOfKind(suggestions []models.Suggestion, kind models.SuggestionKind) []string {
	var out []string
	for _, s := range suggestions {
		if s.Kind == kind {
			out = append(out, s.Text)
		}
	}
	return out
}

func TestEngine_EmptyPartial(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{terms: []string{"air fryer"}})
	for _, partial := range []string{"", "   "} {
		if got := e.Suggest(context.Background(), partial, 10); len(got) != 0 {
			t.Errorf("Suggest(%q) = %v, want empty", partial, got)
		}
	}
}

func TestEngine_Completions(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{})
	got := e.Suggest(context.Background(), "sams", 10)

	comps := textsOfKind(got, models.KindCompletion)
	wantAll := map[string]bool{"samsung": true, "samsung galaxy s24": true, "samsung qled tv": true}
	for _, c := range comps {
		if !wantAll[c] {
			t.Errorf("unexpected completion %q", c)
		}
	}
	if len(comps) != len(wantAll) {
		t.Errorf("completions = %v, want all of %v", comps, wantAll)
	}

	// "samsung" appears in two docs (brand), it must outrank single-doc phrases.
	if len(got) == 0 || got[0].Text != "samsung" {
		t.Errorf("top suggestion = %+v, want samsung first (highest frequency)", got[0])
	}
}

func TestEngine_CorrectionStaticTable(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{})
	got := e.Suggest(context.Background(), "samsng", 10)
	corrections := textsOfKind(got, models.KindCorrection)
	if len(corrections) != 1 || corrections[0] != "samsung" {
		t.Errorf("corrections = %v, want [samsung]", corrections)
	}
}

func TestEngine_CorrectionEditDistance(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{})
	// "androd" is not in the misspelling table; distance 1 from corpus "android".
	got := e.Suggest(context.Background(), "androd", 10)
	corrections := textsOfKind(got, models.KindCorrection)
	if len(corrections) != 1 || corrections[0] != "android" {
		t.Errorf("corrections = %v, want [android]", corrections)
	}
}

func TestEngine_NoCorrectionForKnownTerm(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{})
	got := e.Suggest(context.Background(), "phone", 10)
	if corrections := textsOfKind(got, models.KindCorrection); len(corrections) != 0 {
		t.Errorf("known term produced corrections: %v", corrections)
	}
}

func TestEngine_Related(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{})
	got := e.Suggest(context.Background(), "samsung galaxy", 10)
	related := textsOfKind(got, models.KindRelated)

	wantSome := map[string]bool{"electronics": true, "phone": true, "android": true}
	found := false
	for _, r := range related {
		if wantSome[r] {
			found = true
		} else {
			t.Errorf("unexpected related term %q", r)
		}
	}
	if !found {
		t.Errorf("related = %v, want co-occurring tags/categories of the galaxy doc", related)
	}
}

func TestEngine_Trending(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{terms: []string{"air fryer", "robot vacuum"}})
	got := e.Suggest(context.Background(), "sa", 10)
	trending := textsOfKind(got, models.KindTrending)
	if len(trending) != 2 {
		t.Fatalf("trending = %v, want both entries", trending)
	}
	if trending[0] != "air fryer" {
		t.Errorf("trending order = %v, want most popular first", trending)
	}
}

func TestEngine_TrendingFailureDegrades(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{err: errors.New("redis down")})
	got := e.Suggest(context.Background(), "sams", 10)
	if len(got) == 0 {
		t.Fatal("trending failure must not wipe other generators")
	}
	if trending := textsOfKind(got, models.KindTrending); len(trending) != 0 {
		t.Errorf("failed trending source produced suggestions: %v", trending)
	}
}

func TestEngine_DedupeAndOrdering(t *testing.T) {
	// Trending term colliding with a completion keeps the higher confidence.
	e := newTestEngine(t, &fakeTrending{terms: []string{"samsung"}})
	got := e.Suggest(context.Background(), "sams", 10)

	count := 0
	for _, s := range got {
		if s.Text == "samsung" {
			count++
			if s.Kind != models.KindCompletion {
				t.Errorf("deduped kind = %v, want completion (higher confidence)", s.Kind)
			}
		}
	}
	if count != 1 {
		t.Errorf("%d entries for samsung, want 1", count)
	}

	for i := 1; i < len(got); i++ {
		if got[i].Confidence > got[i-1].Confidence {
			t.Errorf("not sorted by confidence: %v after %v", got[i], got[i-1])
		}
	}
	for _, s := range got {
		if s.Confidence < 0 || s.Confidence > 1 {
			t.Errorf("confidence %v outside [0,1] for %q", s.Confidence, s.Text)
		}
	}
}

func TestEngine_LimitBound(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{terms: []string{"a", "b", "c"}})
	for _, limit := range []int{0, 1, 2, 5} {
		got := e.Suggest(context.Background(), "sa", limit)
		if len(got) > limit {
			t.Errorf("limit %d: got %d suggestions", limit, len(got))
		}
	}
}

func TestEngine_RecordQuery(t *testing.T) {
	ft := &fakeTrending{}
	e := newTestEngine(t, ft)
	e.RecordQuery(context.Background(), "  Samsung TV ")
	e.RecordQuery(context.Background(), "")
	if len(ft.recorded) != 1 || ft.recorded[0] != "samsung tv" {
		t.Errorf("recorded = %v, want [samsung tv]", ft.recorded)
	}
}

func TestEngine_RebuildSwapsAtomically(t *testing.T) {
	e := newTestEngine(t, &fakeTrending{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			e.Rebuild(corpus())
		}
	}()
	for i := 0; i < 100; i++ {
		_ = e.Suggest(context.Background(), "sams", 5)
	}
	<-done
}

func TestStaticTrending_Rotation(t *testing.T) {
	s := NewStaticTrending([]string{"a", "b", "c"})
	day1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	s.WithClock(func() time.Time { return day1 })
	first, _ := s.Top(context.Background(), 2)
	s.WithClock(func() time.Time { return day2 })
	second, _ := s.Top(context.Background(), 2)

	if first[0] == second[0] {
		t.Errorf("rotation did not advance: %v then %v", first, second)
	}
	if got, _ := s.Top(context.Background(), 10); len(got) != 3 {
		t.Errorf("Top(10) = %v, want all 3", got)
	}
}
