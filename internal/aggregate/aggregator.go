package aggregate

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsukeru/internal/models"
)

// Aggregator pulls documents from all registered sources. One failing source
// never aborts the others; failures are logged and reported as degraded.
type Aggregator struct {
	sources []Source
	logger  *zap.Logger

	mu       sync.Mutex
	degraded []string
}

// NewAggregator creates an aggregator over the given sources. A nil logger
// uses a no-op logger.
func NewAggregator(logger *zap.Logger, sources ...Source) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{sources: sources, logger: logger}
}

// BuildAll collects documents from every source. Entries that cannot be
// mapped to a valid document are skipped and logged; sources that fail are
// skipped entirely and recorded as degraded for the run.
func (a *Aggregator) BuildAll(ctx context.Context) []models.IndexedDocument {
	var docs []models.IndexedDocument
	var degraded []string

	for _, src := range a.sources {
		if ctx.Err() != nil {
			break
		}
		entries, err := src.Entries(ctx)
		if err != nil {
			wrapped := fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, src.Name(), err)
			a.logger.Warn("source skipped", zap.String("source", src.Name()), zap.Error(wrapped))
			degraded = append(degraded, src.Name())
			continue
		}
		for _, entry := range entries {
			doc := mapEntry(entry)
			if doc.ID == entry.Kind.String() {
				// No path segments and no title: nothing to identify the
				// entry by, the id would collide with every other bare entry.
				doc.ID = ""
			}
			if err := doc.Validate(); err != nil {
				a.logger.Warn("entry skipped",
					zap.String("source", src.Name()),
					zap.String("title", entry.Title),
					zap.Error(err),
				)
				continue
			}
			docs = append(docs, doc)
		}
		a.logger.Debug("source aggregated",
			zap.String("source", src.Name()),
			zap.Int("entries", len(entries)),
		)
	}

	a.mu.Lock()
	a.degraded = degraded
	a.mu.Unlock()
	return docs
}

// DiffAgainst returns only the documents whose ids are not in existing.
// Used for incremental refresh without a full rebuild.
func (a *Aggregator) DiffAgainst(ctx context.Context, existing map[string]struct{}) []models.IndexedDocument {
	all := a.BuildAll(ctx)
	fresh := all[:0]
	for _, doc := range all {
		if _, ok := existing[doc.ID]; !ok {
			fresh = append(fresh, doc)
		}
	}
	return fresh
}

// DegradedSources reports the sources that failed during the last run.
func (a *Aggregator) DegradedSources() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.degraded))
	copy(out, a.degraded)
	return out
}
