package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsukeru/internal/aggregate"
	"github.com/hyperjump/mitsukeru/internal/analyze"
	"github.com/hyperjump/mitsukeru/internal/config"
	"github.com/hyperjump/mitsukeru/internal/models"
	"github.com/hyperjump/mitsukeru/internal/rerank"
	"github.com/hyperjump/mitsukeru/internal/suggest"
)

type fakeSource struct {
	mu      sync.Mutex
	name    string
	entries []aggregate.RawEntry
	err     error
	// block, when non-nil, is received from before Entries returns. Lets a
	// test hold a rebuild mid-flight.
	block chan struct{}
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Entries(context.Context) ([]aggregate.RawEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]aggregate.RawEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeSource) set(entries []aggregate.RawEntry, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
	f.err = err
}

type reverseProvider struct{}

func (reverseProvider) Name() string { return "reverse" }

func (reverseProvider) Score(_ context.Context, _ models.Query, candidates []models.ScoredResult, _ *rerank.UserContext) ([]models.ScoredResult, error) {
	out := make([]models.ScoredResult, len(candidates))
	for i, c := range candidates {
		out[len(candidates)-1-i] = c
	}
	return out, nil
}

type errProvider struct{}

func (errProvider) Name() string { return "broken" }

func (errProvider) Score(context.Context, models.Query, []models.ScoredResult, *rerank.UserContext) ([]models.ScoredResult, error) {
	return nil, errors.New("model offline")
}

type slowProvider struct{ delay time.Duration }

func (p slowProvider) Name() string { return "slow" }

func (p slowProvider) Score(ctx context.Context, _ models.Query, candidates []models.ScoredResult, _ *rerank.UserContext) ([]models.ScoredResult, error) {
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return candidates, nil
}

func productEntry(path []string, title, category, brand string, tags ...string) aggregate.RawEntry {
	return aggregate.RawEntry{
		Kind:     models.TypeProduct,
		Path:     path,
		Title:    title,
		Category: category,
		Brand:    brand,
		Tags:     tags,
		AddedAt:  time.Now().Add(-30 * 24 * time.Hour),
	}
}

func newTestEngine(t *testing.T, provider rerank.Provider, timeout time.Duration, sources ...aggregate.Source) *Engine {
	t.Helper()
	cfg := config.Default()
	return NewEngine(
		aggregate.NewAggregator(zap.NewNop(), sources...),
		analyze.NewAnalyzer(nil),
		suggest.NewEngine(nil, nil, nil),
		provider,
		nil,
		&cfg.Search,
		timeout,
		zap.NewNop(),
	)
}

func resultIDs(resp models.SearchResponse) []string {
	ids := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		ids[i] = r.Document.ID
	}
	return ids
}

func TestEngine_SearchBeforeBuild(t *testing.T) {
	e := newTestEngine(t, nil, 0, &fakeSource{name: "catalog"})

	if got := e.State(); got != StateEmpty {
		t.Errorf("State() = %v, want empty", got)
	}
	resp := e.Search(context.Background(), "galaxy", 10)
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Errorf("search before build: got %d results, want 0", len(resp.Results))
	}
	if resp.Results == nil {
		t.Error("Results should be an empty slice, not nil")
	}
}

func TestEngine_BuildAndSearch(t *testing.T) {
	src := &fakeSource{name: "catalog", entries: []aggregate.RawEntry{
		productEntry([]string{"electronics", "phones"}, "Galaxy S24", "Electronics", "Samsung", "5g"),
		productEntry([]string{"electronics", "phones"}, "Pixel 9", "Electronics", "Google"),
	}}
	e := newTestEngine(t, nil, 0, src)

	if err := e.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if got := e.State(); got != StateReady {
		t.Errorf("State() = %v, want ready", got)
	}
	if got := e.DocumentCount(); got != 2 {
		t.Errorf("DocumentCount() = %d, want 2", got)
	}

	resp := e.Search(context.Background(), "galaxy", 10)
	want := []string{"product:electronics:phones:galaxy-s24"}
	if got := resultIDs(resp); len(got) != 1 || got[0] != want[0] {
		t.Errorf("Search(galaxy) = %v, want %v", got, want)
	}
	if resp.MLEnhanced {
		t.Error("plain search should not report MLEnhanced")
	}
	if resp.Query != "galaxy" {
		t.Errorf("Query = %q, want galaxy", resp.Query)
	}
}

func TestEngine_RefreshSwapsAtomically(t *testing.T) {
	src := &fakeSource{name: "catalog", entries: []aggregate.RawEntry{
		productEntry(nil, "Old Widget", "Tools", "Acme"),
	}}
	e := newTestEngine(t, nil, 0, src)
	if err := e.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	block := make(chan struct{})
	src.mu.Lock()
	src.entries = []aggregate.RawEntry{productEntry(nil, "New Widget", "Tools", "Acme")}
	src.block = block
	src.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- e.RefreshIndex(context.Background()) }()

	// Wait for the rebuild to start, then query while it is in flight.
	deadline := time.Now().Add(time.Second)
	for e.State() != StateRefreshing {
		if time.Now().After(deadline) {
			t.Fatal("engine never entered refreshing state")
		}
		time.Sleep(time.Millisecond)
	}
	resp := e.Search(context.Background(), "old widget", 10)
	if got := resultIDs(resp); len(got) != 1 || got[0] != "product:old-widget" {
		t.Errorf("search during refresh = %v, want old snapshot", got)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("RefreshIndex() error = %v", err)
	}
	if got := e.State(); got != StateReady {
		t.Errorf("State() = %v, want ready", got)
	}
	if got := resultIDs(e.Search(context.Background(), "new widget", 10)); len(got) != 1 || got[0] != "product:new-widget" {
		t.Errorf("search after refresh = %v, want new snapshot", got)
	}
	if got := resultIDs(e.Search(context.Background(), "old", 10)); len(got) != 0 {
		t.Errorf("old document survived refresh: %v", got)
	}
}

func TestEngine_RefreshKeepsSnapshotWhenAllSourcesFail(t *testing.T) {
	src := &fakeSource{name: "catalog", entries: []aggregate.RawEntry{
		productEntry(nil, "Galaxy S24", "Electronics", "Samsung"),
	}}
	e := newTestEngine(t, nil, 0, src)
	if err := e.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	src.set(nil, errors.New("connection refused"))
	err := e.RefreshIndex(context.Background())
	if !errors.Is(err, aggregate.ErrSourceUnavailable) {
		t.Fatalf("RefreshIndex() error = %v, want ErrSourceUnavailable", err)
	}
	if got := e.State(); got != StateReady {
		t.Errorf("State() = %v, want ready", got)
	}
	if got := resultIDs(e.Search(context.Background(), "galaxy", 10)); len(got) != 1 {
		t.Errorf("previous snapshot lost after failed refresh: %v", got)
	}
	if got := e.DegradedSources(); len(got) != 1 || got[0] != "catalog" {
		t.Errorf("DegradedSources() = %v, want [catalog]", got)
	}
}

func TestEngine_AutoIndexNewContent(t *testing.T) {
	e := newTestEngine(t, nil, 0, &fakeSource{name: "catalog"})
	if _, err := e.AutoIndexNewContent(context.Background()); !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("AutoIndexNewContent() before build: error = %v, want ErrIndexNotReady", err)
	}

	src := &fakeSource{name: "catalog", entries: []aggregate.RawEntry{
		productEntry(nil, "Galaxy S24", "Electronics", "Samsung"),
	}}
	e = newTestEngine(t, nil, 0, src)
	if err := e.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	added, err := e.AutoIndexNewContent(context.Background())
	if err != nil || added != 0 {
		t.Fatalf("AutoIndexNewContent() with no new content = (%d, %v), want (0, nil)", added, err)
	}

	src.set([]aggregate.RawEntry{
		productEntry(nil, "Galaxy S24", "Electronics", "Samsung"),
		productEntry(nil, "Galaxy Watch", "Electronics", "Samsung"),
	}, nil)
	added, err = e.AutoIndexNewContent(context.Background())
	if err != nil {
		t.Fatalf("AutoIndexNewContent() error = %v", err)
	}
	if added != 1 {
		t.Errorf("AutoIndexNewContent() added = %d, want 1", added)
	}
	if got := e.DocumentCount(); got != 2 {
		t.Errorf("DocumentCount() = %d, want 2", got)
	}
	if got := resultIDs(e.Search(context.Background(), "watch", 10)); len(got) != 1 || got[0] != "product:galaxy-watch" {
		t.Errorf("new content not searchable: %v", got)
	}
}

func TestEngine_SearchWithReranking(t *testing.T) {
	src := &fakeSource{name: "catalog", entries: []aggregate.RawEntry{
		{Kind: models.TypeProduct, Title: "Galaxy Phone Case", Category: "Accessories", Brand: "Samsung"},
		{Kind: models.TypeProduct, Title: "Galaxy S24 Phone", Category: "Electronics", Brand: "Samsung", Description: "flagship phone"},
	}}

	t.Run("provider reorders and flags enhancement", func(t *testing.T) {
		e := newTestEngine(t, reverseProvider{}, time.Second, src)
		if err := e.BuildIndex(context.Background()); err != nil {
			t.Fatalf("BuildIndex() error = %v", err)
		}
		base := e.Search(context.Background(), "galaxy phone", 10)
		resp := e.SearchWithReranking(context.Background(), "galaxy phone", "", 10)
		if !resp.MLEnhanced {
			t.Error("MLEnhanced = false, want true")
		}
		baseIDs, gotIDs := resultIDs(base), resultIDs(resp)
		if len(gotIDs) != len(baseIDs) {
			t.Fatalf("result count changed: %d vs %d", len(gotIDs), len(baseIDs))
		}
		for i := range baseIDs {
			if gotIDs[i] != baseIDs[len(baseIDs)-1-i] {
				t.Errorf("reranked order = %v, want reverse of %v", gotIDs, baseIDs)
				break
			}
		}
	})

	t.Run("provider error falls back to base ranking", func(t *testing.T) {
		e := newTestEngine(t, errProvider{}, time.Second, src)
		if err := e.BuildIndex(context.Background()); err != nil {
			t.Fatalf("BuildIndex() error = %v", err)
		}
		base := e.Search(context.Background(), "galaxy phone", 10)
		resp := e.SearchWithReranking(context.Background(), "galaxy phone", "", 10)
		if resp.MLEnhanced {
			t.Error("MLEnhanced = true after provider error, want false")
		}
		baseIDs, gotIDs := resultIDs(base), resultIDs(resp)
		for i := range baseIDs {
			if gotIDs[i] != baseIDs[i] {
				t.Errorf("fallback order = %v, want base %v", gotIDs, baseIDs)
				break
			}
		}
	})

	t.Run("slow provider times out and falls back", func(t *testing.T) {
		e := newTestEngine(t, slowProvider{delay: 500 * time.Millisecond}, 20*time.Millisecond, src)
		if err := e.BuildIndex(context.Background()); err != nil {
			t.Fatalf("BuildIndex() error = %v", err)
		}
		started := time.Now()
		resp := e.SearchWithReranking(context.Background(), "galaxy phone", "", 10)
		if resp.MLEnhanced {
			t.Error("MLEnhanced = true after timeout, want false")
		}
		if took := time.Since(started); took > 300*time.Millisecond {
			t.Errorf("timed-out re-rank blocked for %v", took)
		}
		if len(resp.Results) != 2 {
			t.Errorf("fallback lost results: got %d, want 2", len(resp.Results))
		}
	})
}

func TestEngine_SearchByType(t *testing.T) {
	src := &fakeSource{name: "mixed", entries: []aggregate.RawEntry{
		{Kind: models.TypeProduct, Title: "Shipping Scale", Category: "Office"},
		{Kind: models.TypePage, Title: "Shipping Policy", Category: "Support"},
	}}
	e := newTestEngine(t, nil, 0, src)
	if err := e.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	resp := e.SearchByType(context.Background(), "shipping", models.TypePage, 10)
	if got := resultIDs(resp); len(got) != 1 || got[0] != "page:shipping-policy" {
		t.Errorf("SearchByType(page) = %v, want [page:shipping-policy]", got)
	}
}

func TestEngine_AdminContentHiddenFromRegularSearch(t *testing.T) {
	src := &fakeSource{name: "mixed", entries: []aggregate.RawEntry{
		{Kind: models.TypeProduct, Title: "Inventory Widget", Category: "Tools"},
		{Kind: models.TypePage, Title: "Inventory Dashboard", Category: "Administration"},
		{Kind: models.TypePage, Title: "Inventory Reports", Category: "Support", Tags: []string{"admin"}},
	}}
	e := newTestEngine(t, nil, 0, src)
	if err := e.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	resp := e.Search(context.Background(), "inventory", 10)
	if got := resultIDs(resp); len(got) != 1 || got[0] != "product:inventory-widget" {
		t.Errorf("regular search leaked admin content: %v", got)
	}

	admin := e.SearchAdminContent(context.Background(), "inventory", 10)
	if got := resultIDs(admin); len(got) != 2 {
		t.Errorf("SearchAdminContent() = %v, want 2 admin documents", got)
	}
	for _, r := range admin.Results {
		if r.Document.ID == "product:inventory-widget" {
			t.Error("SearchAdminContent() returned a non-admin document")
		}
	}
}

func TestEngine_LimitClamping(t *testing.T) {
	entries := make([]aggregate.RawEntry, 0, 150)
	for i := 0; i < 150; i++ {
		entries = append(entries, aggregate.RawEntry{
			Kind:  models.TypeProduct,
			Path:  []string{"bulk", string(rune('a' + i%26)), string(rune('a' + i/26))},
			Title: "Widget",
		})
	}
	src := &fakeSource{name: "bulk", entries: entries}
	e := newTestEngine(t, nil, 0, src)
	if err := e.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	if got := len(e.Search(context.Background(), "widget", 0).Results); got != 10 {
		t.Errorf("limit 0: got %d results, want default 10", got)
	}
	if got := len(e.Search(context.Background(), "widget", 500).Results); got != 100 {
		t.Errorf("limit 500: got %d results, want max 100", got)
	}
}

func TestEngine_Suggestions(t *testing.T) {
	src := &fakeSource{name: "catalog", entries: []aggregate.RawEntry{
		{Kind: models.TypeProduct, Title: "Galaxy S24", Category: "Electronics", Brand: "Samsung"},
	}}
	e := newTestEngine(t, nil, 0, src)
	if err := e.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	got := e.Suggestions(context.Background(), "gal", 5)
	found := false
	for _, s := range got {
		if s.Text == "galaxy s24" && s.Kind == models.KindCompletion {
			found = true
		}
	}
	if !found {
		t.Errorf("Suggestions(gal) = %v, want completion %q", got, "galaxy s24")
	}
	if got := e.Suggestions(context.Background(), "", 5); len(got) != 0 {
		t.Errorf("Suggestions(\"\") = %v, want empty", got)
	}
}
