// Package index provides the in-memory document store.
package index

import (
	"sort"
	"sync"

	"github.com/hyperjump/mitsukeru/internal/models"
	"github.com/hyperjump/mitsukeru/internal/ranking"
)

// Store is an in-memory document index with field-weighted search.
//
// Documents are stored by value and replaced wholesale on upsert, so readers
// never observe a partially written document. The store is safe for
// concurrent reads with single or multiple writers.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]*entry
	seq    int
	scorer *ranking.Scorer
}

// entry pairs a document with its insertion sequence. The sequence is the
// deterministic tie-breaker for equal scores and survives upserts.
type entry struct {
	doc models.IndexedDocument
	seq int
}

// NewStore creates an empty store scoring with the given weights.
// Nil weights use defaults.
func NewStore(weights *ranking.Weights) *Store {
	return &Store{
		docs:   make(map[string]*entry),
		scorer: ranking.NewScorer(weights),
	}
}

// Scorer exposes the store's scorer, mainly so tests can fix the clock.
func (s *Store) Scorer() *ranking.Scorer {
	return s.scorer
}

// Upsert adds or replaces the document with the same id. The derived
// searchable text is always recomputed from the incoming fields.
func (s *Store) Upsert(doc models.IndexedDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	doc.NormalizeTags()
	doc.ComputeSearchableText()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.docs[doc.ID]; ok {
		existing.doc = doc
		return nil
	}
	s.docs[doc.ID] = &entry{doc: doc, seq: s.seq}
	s.seq++
	return nil
}

// Remove deletes the document with the given id. Removing an absent id is a
// no-op, not an error.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

// Clear empties the store and resets insertion order.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*entry)
	s.seq = 0
}

// Len returns the number of stored documents, inactive included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Get returns a copy of the document with the given id.
func (s *Store) Get(id string) (models.IndexedDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.docs[id]
	if !ok {
		return models.IndexedDocument{}, false
	}
	return e.doc, true
}

// IDs returns the set of stored document ids.
func (s *Store) IDs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{}, len(s.docs))
	for id := range s.docs {
		ids[id] = struct{}{}
	}
	return ids
}

// All returns a snapshot of every stored document in insertion order,
// inactive documents included (admin tooling needs them).
func (s *Store) All() []models.IndexedDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*entry, 0, len(s.docs))
	for _, e := range s.docs {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	docs := make([]models.IndexedDocument, len(entries))
	for i, e := range entries {
		docs[i] = e.doc
	}
	return docs
}

// ActiveDocuments returns a snapshot of active documents in insertion order.
// Suggestion generation reads the corpus through this.
func (s *Store) ActiveDocuments() []models.IndexedDocument {
	all := s.All()
	active := all[:0]
	for _, doc := range all {
		if doc.IsActive {
			active = append(active, doc)
		}
	}
	return active
}

// Search scores every active document against the query and returns up to
// limit results ordered by descending score, ties broken by insertion order.
// An empty or whitespace-only query returns an empty result, not an error.
func (s *Store) Search(query string, limit int) []models.ScoredResult {
	tokens := ranking.Tokenize(query)
	if len(tokens) == 0 || limit <= 0 {
		return []models.ScoredResult{}
	}

	type hit struct {
		res models.ScoredResult
		seq int
	}

	s.mu.RLock()
	hits := make([]hit, 0, len(s.docs))
	for _, e := range s.docs {
		if !e.doc.IsActive {
			continue
		}
		score := s.scorer.Score(&e.doc, tokens)
		if score <= 0 {
			continue
		}
		hits = append(hits, hit{res: models.ScoredResult{Document: e.doc, Score: score}, seq: e.seq})
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].res.Score != hits[j].res.Score {
			return hits[i].res.Score > hits[j].res.Score
		}
		return hits[i].seq < hits[j].seq
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	results := make([]models.ScoredResult, len(hits))
	for i, h := range hits {
		results[i] = h.res
	}
	return results
}
