package rerank

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/hyperjump/mitsukeru/internal/models"
)

type slowProvider struct {
	delay   time.Duration
	err     error
	results []models.ScoredResult
}

func (p *slowProvider) Name() string { return "slow" }

func (p *slowProvider) Score(ctx context.Context, _ models.Query, candidates []models.ScoredResult, _ *UserContext) ([]models.ScoredResult, error) {
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.results != nil {
		return p.results, nil
	}
	return candidates, nil
}

func candidate(id, title, category string, price, score float64) models.ScoredResult {
	return models.ScoredResult{
		Document: models.IndexedDocument{
			ID: id, Title: title, Category: category, Price: &price, IsActive: true,
		},
		Score: score,
	}
}

func TestInvoke_Timeout(t *testing.T) {
	p := &slowProvider{delay: 200 * time.Millisecond}
	_, err := Invoke(context.Background(), p, 20*time.Millisecond, models.Query{}, nil, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestInvoke_Success(t *testing.T) {
	want := []models.ScoredResult{candidate("p1", "Galaxy", "", 100, 12)}
	p := &slowProvider{results: want}
	got, err := Invoke(context.Background(), p, time.Second, models.Query{}, nil, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("results = %v, want %v", got, want)
	}
}

func TestInvoke_ProviderError(t *testing.T) {
	p := &slowProvider{err: errors.New("model unavailable")}
	if _, err := Invoke(context.Background(), p, time.Second, models.Query{}, nil, nil); err == nil {
		t.Error("provider error swallowed")
	}
}

func TestInvoke_CallerCancellation(t *testing.T) {
	p := &slowProvider{delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := Invoke(ctx, p, 5*time.Second, models.Query{}, nil, nil)
	if err == nil {
		t.Fatal("cancelled invocation returned no error")
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled invocation was awaited instead of abandoned")
	}
}

func TestHeuristic_BrandEntityBoost(t *testing.T) {
	h := NewHeuristic(Boosts{})
	query := models.Query{Raw: "samsung phone", Entities: []string{"samsung"}}
	in := []models.ScoredResult{
		candidate("p1", "Pixel 9", "", 500, 10),
		candidate("p2", "Samsung Galaxy", "", 600, 10),
	}

	out, err := h.Score(context.Background(), query, in, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out[0].Document.ID != "p2" {
		t.Errorf("order = [%s %s], want brand-entity match first", out[0].Document.ID, out[1].Document.ID)
	}
	if out[0].Score != 10.2 {
		t.Errorf("boosted score = %v, want 10.2", out[0].Score)
	}
	// Inputs untouched.
	if in[1].Score != 10 {
		t.Errorf("input mutated: %v", in[1].Score)
	}
}

func TestHeuristic_PreferenceBoosts(t *testing.T) {
	h := NewHeuristic(Boosts{})
	f := func(v float64) *float64 { return &v }
	user := &UserContext{
		UserID:     "u1",
		Categories: []string{"Electronics"},
		PriceRange: &models.PriceRange{Min: f(100), Max: f(700)},
	}
	in := []models.ScoredResult{
		candidate("match", "TV", "Electronics", 600, 10),
		candidate("other", "Sofa", "Furniture", 600, 10),
	}

	out, err := h.Score(context.Background(), models.Query{}, in, user)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out[0].Document.ID != "match" {
		t.Errorf("preferred category not ranked first: %v", out[0].Document.ID)
	}
	// category 0.15 + price-in-range 0.1
	if got := out[0].Score; got != 10.25 {
		t.Errorf("boosted score = %v, want 10.25", got)
	}
	// Price in range boosts the non-category doc too.
	if got := out[1].Score; got != 10.1 {
		t.Errorf("price-only score = %v, want 10.1", got)
	}
}

func TestHeuristic_Deterministic(t *testing.T) {
	h := NewHeuristic(Boosts{})
	query := models.Query{Entities: []string{"samsung"}}
	in := []models.ScoredResult{
		candidate("a", "Samsung A", "", 100, 5),
		candidate("b", "Samsung B", "", 100, 5),
	}
	first, _ := h.Score(context.Background(), query, in, nil)
	for i := 0; i < 5; i++ {
		got, _ := h.Score(context.Background(), query, in, nil)
		if !reflect.DeepEqual(got, first) {
			t.Fatal("heuristic provider is not deterministic")
		}
	}
	// Equal boosted scores keep input order (stable).
	if first[0].Document.ID != "a" {
		t.Errorf("stable order broken: %v first", first[0].Document.ID)
	}
}

func TestStaticPersonalization(t *testing.T) {
	p := NewStaticPersonalization(map[string]*UserContext{
		"u1": {UserID: "u1", Categories: []string{"books"}},
	})
	got, err := p.Preferences(context.Background(), "u1")
	if err != nil || got == nil || got.Categories[0] != "books" {
		t.Errorf("Preferences(u1) = %v, %v", got, err)
	}
	missing, err := p.Preferences(context.Background(), "nobody")
	if err != nil || missing != nil {
		t.Errorf("unknown user: %v, %v (want nil, nil)", missing, err)
	}
}
