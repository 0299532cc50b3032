// Package search orchestrates aggregation, indexing, query analysis,
// suggestions, and re-ranking behind a single engine.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/mitsukeru/internal/aggregate"
	"github.com/hyperjump/mitsukeru/internal/analyze"
	"github.com/hyperjump/mitsukeru/internal/config"
	"github.com/hyperjump/mitsukeru/internal/index"
	"github.com/hyperjump/mitsukeru/internal/metrics"
	"github.com/hyperjump/mitsukeru/internal/models"
	"github.com/hyperjump/mitsukeru/internal/rerank"
	"github.com/hyperjump/mitsukeru/internal/suggest"
)

// ErrIndexNotReady indicates no index snapshot exists yet. Search degrades
// to empty results instead of surfacing this to callers; it is returned by
// operations that require a built index, like AutoIndexNewContent.
var ErrIndexNotReady = errors.New("index not ready")

// adminCategory marks documents only visible through SearchAdminContent.
const adminCategory = "administration"

// Engine coordinates the index lifecycle and serves queries from an
// immutable store snapshot. Rebuilds prepare a fresh store off to the side
// and swap it in atomically, so readers never observe a half-built index.
type Engine struct {
	aggregator      *aggregate.Aggregator
	analyzer        *analyze.Analyzer
	suggester       *suggest.Engine
	provider        rerank.Provider
	personalization rerank.Personalization
	cfg             *config.SearchConfig
	rerankTimeout   time.Duration
	logger          *zap.Logger

	store atomic.Pointer[index.Store]
	state atomic.Int32

	// rebuildMu serializes BuildIndex/RefreshIndex/AutoIndexNewContent.
	rebuildMu sync.Mutex
}

// NewEngine wires the engine. provider and personalization may be nil, which
// disables re-ranking and user preferences respectively.
func NewEngine(
	aggregator *aggregate.Aggregator,
	analyzer *analyze.Analyzer,
	suggester *suggest.Engine,
	provider rerank.Provider,
	personalization rerank.Personalization,
	cfg *config.SearchConfig,
	rerankTimeout time.Duration,
	logger *zap.Logger,
) *Engine {
	if cfg == nil {
		def := config.Default()
		cfg = &def.Search
	}
	if rerankTimeout <= 0 {
		rerankTimeout = rerank.DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		aggregator:      aggregator,
		analyzer:        analyzer,
		suggester:       suggester,
		provider:        provider,
		personalization: personalization,
		cfg:             cfg,
		rerankTimeout:   rerankTimeout,
		logger:          logger,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// DocumentCount returns the number of documents in the live snapshot.
func (e *Engine) DocumentCount() int {
	if s := e.store.Load(); s != nil {
		return s.Len()
	}
	return 0
}

// DegradedSources lists sources that failed during the last rebuild.
func (e *Engine) DegradedSources() []string {
	return e.aggregator.DegradedSources()
}

// Documents returns all indexed documents in insertion order, including
// inactive ones. Used by the admin document listing.
func (e *Engine) Documents() []models.IndexedDocument {
	if s := e.store.Load(); s != nil {
		return s.All()
	}
	return nil
}

// BuildIndex performs the initial full build. Safe to call again; subsequent
// calls behave like RefreshIndex.
func (e *Engine) BuildIndex(ctx context.Context) error {
	return e.rebuild(ctx, "build")
}

// RefreshIndex rebuilds from all sources and atomically swaps the snapshot.
// Queries during the rebuild are served from the previous snapshot.
func (e *Engine) RefreshIndex(ctx context.Context) error {
	return e.rebuild(ctx, "refresh")
}

func (e *Engine) rebuild(ctx context.Context, op string) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	prev := e.store.Load()
	if prev == nil {
		e.state.Store(int32(StateBuilding))
	} else {
		e.state.Store(int32(StateRefreshing))
	}

	started := time.Now()
	docs := e.aggregator.BuildAll(ctx)
	degraded := e.aggregator.DegradedSources()
	metrics.DegradedSources.Set(float64(len(degraded)))

	if len(docs) == 0 && len(degraded) > 0 && prev != nil {
		// Every source failed; keep serving the old snapshot.
		e.state.Store(int32(StateReady))
		metrics.IndexRefreshes.WithLabelValues(op, "failed").Inc()
		return fmt.Errorf("%s aborted, keeping previous snapshot: %w", op, aggregate.ErrSourceUnavailable)
	}

	next := index.NewStore(&e.cfg.Weights)
	indexed := 0
	for _, doc := range docs {
		if err := next.Upsert(doc); err != nil {
			e.logger.Warn("skipping document",
				zap.String("id", doc.ID),
				zap.Error(err))
			continue
		}
		indexed++
	}

	e.suggester.Rebuild(next.ActiveDocuments())
	e.store.Store(next)
	e.state.Store(int32(StateReady))

	metrics.IndexDocuments.Set(float64(indexed))
	metrics.IndexRefreshes.WithLabelValues(op, "ok").Inc()

	e.logger.Info("index rebuilt",
		zap.String("operation", op),
		zap.Int("documents", indexed),
		zap.Strings("degraded_sources", degraded),
		zap.Duration("took", time.Since(started)))
	return nil
}

// AutoIndexNewContent pulls only documents whose ids are absent from the
// live snapshot and upserts them in place. Returns how many were added.
func (e *Engine) AutoIndexNewContent(ctx context.Context) (int, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	store := e.store.Load()
	if store == nil {
		return 0, ErrIndexNotReady
	}

	fresh := e.aggregator.DiffAgainst(ctx, store.IDs())
	metrics.DegradedSources.Set(float64(len(e.aggregator.DegradedSources())))
	if len(fresh) == 0 {
		return 0, nil
	}

	added := 0
	for _, doc := range fresh {
		if err := store.Upsert(doc); err != nil {
			e.logger.Warn("skipping document",
				zap.String("id", doc.ID),
				zap.Error(err))
			continue
		}
		added++
	}
	if added > 0 {
		e.suggester.Rebuild(store.ActiveDocuments())
		metrics.IndexDocuments.Set(float64(store.Len()))
		e.logger.Info("auto-indexed new content", zap.Int("added", added))
	}
	metrics.IndexRefreshes.WithLabelValues("auto", "ok").Inc()
	return added, nil
}

// StartAutoIndexing runs AutoIndexNewContent on the configured interval
// until ctx is cancelled.
func (e *Engine) StartAutoIndexing(ctx context.Context) {
	interval := e.cfg.AutoIndexInterval()
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := e.AutoIndexNewContent(ctx); err != nil {
					e.logger.Warn("auto-indexing pass failed", zap.Error(err))
				}
			}
		}
	}()
}

// clampLimit applies the configured default and ceiling.
func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}
	return limit
}

// baseSearch runs analysis and scoring against the live snapshot. Admin
// content never appears here.
func (e *Engine) baseSearch(ctx context.Context, raw string, limit int) (models.Query, []models.ScoredResult) {
	query := e.analyzer.Analyze(raw)

	store := e.store.Load()
	if store == nil {
		return query, []models.ScoredResult{}
	}

	// Fetch wide so post-filtering still fills the page.
	results := store.Search(raw, e.cfg.MaxLimit)
	filtered := results[:0]
	for _, r := range results {
		if isAdmin(&r.Document) {
			continue
		}
		filtered = append(filtered, r)
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	if strings.TrimSpace(raw) != "" {
		go e.suggester.RecordQuery(context.WithoutCancel(ctx), raw)
	}
	return query, filtered
}

// Search runs a plain ranked search. An unbuilt index yields empty results,
// never an error.
func (e *Engine) Search(ctx context.Context, raw string, limit int) models.SearchResponse {
	started := time.Now()
	limit = e.clampLimit(limit)

	query, results := e.baseSearch(ctx, raw, limit)

	took := time.Since(started)
	metrics.SearchDuration.Observe(took.Seconds())
	e.logger.Debug("search served",
		zap.String("query_id", uuid.NewString()),
		zap.String("query", raw),
		zap.String("intent", query.Intent.String()),
		zap.Int("results", len(results)),
		zap.Duration("took", took))

	return models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: took.Milliseconds(),
		Query:     raw,
	}
}

// SearchWithReranking runs a ranked search and then the re-rank provider on
// the candidates. Provider failure or timeout falls back to the base ranking
// with MLEnhanced false.
func (e *Engine) SearchWithReranking(ctx context.Context, raw, userID string, limit int) models.SearchResponse {
	started := time.Now()
	limit = e.clampLimit(limit)

	query, results := e.baseSearch(ctx, raw, limit)

	enhanced := false
	if e.provider != nil && len(results) > 0 {
		user := e.userContext(ctx, userID)
		reranked, err := rerank.Invoke(ctx, e.provider, e.rerankTimeout, query, results, user)
		switch {
		case err != nil:
			reason := "error"
			if errors.Is(err, rerank.ErrTimeout) {
				reason = "timeout"
			}
			metrics.RerankFallbacks.WithLabelValues(e.provider.Name(), reason).Inc()
			e.logger.Warn("re-rank fallback",
				zap.String("provider", e.provider.Name()),
				zap.String("reason", reason),
				zap.Error(err))
		case len(reranked) != len(results):
			metrics.RerankFallbacks.WithLabelValues(e.provider.Name(), "mismatch").Inc()
			e.logger.Warn("re-rank fallback: result count mismatch",
				zap.String("provider", e.provider.Name()),
				zap.Int("got", len(reranked)),
				zap.Int("want", len(results)))
		default:
			results = reranked
			enhanced = true
		}
	}

	took := time.Since(started)
	metrics.SearchDuration.Observe(took.Seconds())

	return models.SearchResponse{
		Results:    results,
		Total:      len(results),
		QueryTime:  took.Milliseconds(),
		Query:      raw,
		MLEnhanced: enhanced,
	}
}

func (e *Engine) userContext(ctx context.Context, userID string) *rerank.UserContext {
	if userID == "" || e.personalization == nil {
		return nil
	}
	user, err := e.personalization.Preferences(ctx, userID)
	if err != nil {
		e.logger.Warn("preferences lookup failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil
	}
	return user
}

// SearchByType restricts results to a single document type.
func (e *Engine) SearchByType(ctx context.Context, raw string, docType models.DocumentType, limit int) models.SearchResponse {
	started := time.Now()
	limit = e.clampLimit(limit)

	_, results := e.baseSearch(ctx, raw, e.cfg.MaxLimit)
	filtered := results[:0]
	for _, r := range results {
		if r.Document.Type == docType {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	took := time.Since(started)
	metrics.SearchDuration.Observe(took.Seconds())

	return models.SearchResponse{
		Results:   filtered,
		Total:     len(filtered),
		QueryTime: took.Milliseconds(),
		Query:     raw,
	}
}

// SearchAdminContent searches only administrative documents, which regular
// searches exclude.
func (e *Engine) SearchAdminContent(ctx context.Context, raw string, limit int) models.SearchResponse {
	started := time.Now()
	limit = e.clampLimit(limit)

	filtered := []models.ScoredResult{}
	if store := e.store.Load(); store != nil {
		results := store.Search(raw, e.cfg.MaxLimit)
		filtered = results[:0]
		for _, r := range results {
			if isAdmin(&r.Document) {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) > limit {
			filtered = filtered[:limit]
		}
	}

	return models.SearchResponse{
		Results:   filtered,
		Total:     len(filtered),
		QueryTime: time.Since(started).Milliseconds(),
		Query:     raw,
	}
}

// Suggestions serves autocomplete suggestions for a partial query.
func (e *Engine) Suggestions(ctx context.Context, partial string, limit int) []models.Suggestion {
	limit = e.clampLimit(limit)
	suggestions := e.suggester.Suggest(ctx, partial, limit)
	for _, s := range suggestions {
		metrics.SuggestionsServed.WithLabelValues(s.Kind.String()).Inc()
	}
	return suggestions
}

func isAdmin(doc *models.IndexedDocument) bool {
	return strings.EqualFold(doc.Category, adminCategory) || doc.HasTag("admin")
}
