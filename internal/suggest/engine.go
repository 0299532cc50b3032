package suggest

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsukeru/internal/models"
	"github.com/hyperjump/mitsukeru/internal/ranking"
	"github.com/hyperjump/mitsukeru/internal/vocab"
)

// Confidence levels per generator. Completions scale with corpus frequency;
// the rest are fixed bands so kinds interleave predictably.
const (
	completionBase    = 0.6
	completionSpread  = 0.35
	correctionStatic  = 0.85
	correctionDist1   = 0.75
	correctionDist2   = 0.65
	relatedConfidence = 0.5
	trendingBase      = 0.45
	trendingStep      = 0.01
)

// maxEditDistance is the correction cutoff for dictionary lookups.
const maxEditDistance = 2

// suggestionIndex is one immutable snapshot of the completion structures.
// Rebuild creates a fresh snapshot and swaps it atomically, so Suggest never
// observes a partially rebuilt trie.
type suggestionIndex struct {
	trie    *trie
	freq    map[string]int
	maxFreq int
	// related maps a completion phrase to co-occurring tags and categories.
	related map[string][]string
	// terms is the set of single tokens present in the corpus.
	terms map[string]struct{}
}

func emptyIndex() *suggestionIndex {
	return &suggestionIndex{
		trie:    newTrie(),
		freq:    make(map[string]int),
		related: make(map[string][]string),
		terms:   make(map[string]struct{}),
	}
}

// Engine generates autocomplete suggestions from the indexed corpus, the
// controlled vocabularies, and a trending source.
type Engine struct {
	vocab    *vocab.Registry
	trending TrendingSource
	logger   *zap.Logger
	current  atomic.Pointer[suggestionIndex]
}

// NewEngine creates a suggestion engine. A nil trending source falls back to
// the vocabulary's curated list; a nil logger uses a no-op logger.
func NewEngine(registry *vocab.Registry, trending TrendingSource, logger *zap.Logger) *Engine {
	if registry == nil {
		registry = vocab.NewRegistry(nil)
	}
	if trending == nil {
		trending = NewStaticTrending(registry.Current().Trending)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{vocab: registry, trending: trending, logger: logger}
	e.current.Store(emptyIndex())
	return e
}

// Rebuild replaces the completion structures from the given documents.
// Callers pass active documents only; inactive content must never surface
// in suggestions.
func (e *Engine) Rebuild(docs []models.IndexedDocument) {
	idx := emptyIndex()
	for i := range docs {
		doc := &docs[i]
		phrases := candidatePhrases(doc)
		cooccur := cooccurring(doc)
		for _, phrase := range phrases {
			if phrase == "" {
				continue
			}
			idx.trie.insert(phrase)
			idx.freq[phrase]++
			if idx.freq[phrase] > idx.maxFreq {
				idx.maxFreq = idx.freq[phrase]
			}
			for _, rel := range cooccur {
				if rel != phrase && !contains(idx.related[phrase], rel) {
					idx.related[phrase] = append(idx.related[phrase], rel)
				}
			}
			for _, tok := range ranking.Tokenize(phrase) {
				idx.terms[tok] = struct{}{}
			}
		}
	}
	e.current.Store(idx)
	e.logger.Debug("suggestion index rebuilt",
		zap.Int("documents", len(docs)),
		zap.Int("phrases", len(idx.freq)),
	)
}

// Suggest returns up to limit candidates for a partial query, merged from the
// four generators, de-duplicated by text, and ordered by descending
// confidence. An empty partial query yields no suggestions.
func (e *Engine) Suggest(ctx context.Context, partial string, limit int) []models.Suggestion {
	partial = strings.ToLower(strings.TrimSpace(partial))
	if partial == "" || limit <= 0 {
		return []models.Suggestion{}
	}

	idx := e.current.Load()
	merged := make(map[string]models.Suggestion)
	add := func(s models.Suggestion) {
		if s.Text == "" || s.Text == partial {
			return
		}
		if prev, ok := merged[s.Text]; ok && prev.Confidence >= s.Confidence {
			return
		}
		merged[s.Text] = s
	}

	completions := e.completions(idx, partial, limit)
	for _, s := range completions {
		add(s)
	}
	for _, s := range e.corrections(idx, partial) {
		add(s)
	}
	for _, s := range e.relatedTo(idx, completions) {
		add(s)
	}
	for _, s := range e.trendingNow(ctx, limit) {
		add(s)
	}

	out := make([]models.Suggestion, 0, len(merged))
	for _, s := range merged {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RecordQuery feeds a served query into the trending source.
func (e *Engine) RecordQuery(ctx context.Context, query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return
	}
	if err := e.trending.Record(ctx, query); err != nil {
		e.logger.Debug("trending record failed", zap.String("query", query), zap.Error(err))
	}
}

// completions prefix-matches the partial query against indexed titles, tags,
// brands, and categories. Confidence scales with how many documents carry
// the phrase.
func (e *Engine) completions(idx *suggestionIndex, partial string, limit int) []models.Suggestion {
	phrases := idx.trie.withPrefix(partial, limit*2)
	out := make([]models.Suggestion, 0, len(phrases))
	for _, phrase := range phrases {
		ratio := 0.0
		if idx.maxFreq > 0 {
			ratio = float64(idx.freq[phrase]) / float64(idx.maxFreq)
		}
		out = append(out, models.Suggestion{
			Text:       phrase,
			Kind:       models.KindCompletion,
			Confidence: completionBase + completionSpread*ratio,
		})
	}
	return out
}

// corrections fixes typos token by token: the static misspelling table wins,
// then an edit-distance lookup against the vocabulary and corpus terms.
func (e *Engine) corrections(idx *suggestionIndex, partial string) []models.Suggestion {
	v := e.vocab.Current()
	tokens := ranking.Tokenize(partial)
	if len(tokens) == 0 {
		return nil
	}

	corrected := make([]string, len(tokens))
	confidence := 0.0
	changed := false
	for i, tok := range tokens {
		corrected[i] = tok
		if _, known := idx.terms[tok]; known {
			continue
		}
		if fix, ok := v.Misspellings[tok]; ok {
			corrected[i] = fix
			changed = true
			confidence = maxFloat(confidence, correctionStatic)
			continue
		}
		if fix, dist := closestTerm(tok, v.Terms(), idx.terms); fix != "" {
			corrected[i] = fix
			changed = true
			if dist == 1 {
				confidence = maxFloat(confidence, correctionDist1)
			} else {
				confidence = maxFloat(confidence, correctionDist2)
			}
		}
	}
	if !changed {
		return nil
	}
	return []models.Suggestion{{
		Text:       strings.Join(corrected, " "),
		Kind:       models.KindCorrection,
		Confidence: confidence,
	}}
}

// relatedTo surfaces tags and categories co-occurring with the strongest
// completion matches.
func (e *Engine) relatedTo(idx *suggestionIndex, completions []models.Suggestion) []models.Suggestion {
	const topN = 3
	var out []models.Suggestion
	for i, c := range completions {
		if i >= topN {
			break
		}
		for _, rel := range idx.related[c.Text] {
			out = append(out, models.Suggestion{
				Text:       rel,
				Kind:       models.KindRelated,
				Confidence: relatedConfidence,
			})
		}
	}
	return out
}

// trendingNow pulls the current trending list. Failures degrade to no
// trending suggestions, never an error to the caller.
func (e *Engine) trendingNow(ctx context.Context, limit int) []models.Suggestion {
	terms, err := e.trending.Top(ctx, limit)
	if err != nil {
		e.logger.Debug("trending lookup failed", zap.Error(err))
		return nil
	}
	out := make([]models.Suggestion, 0, len(terms))
	for i, term := range terms {
		conf := trendingBase - float64(i)*trendingStep
		if conf < 0 {
			conf = 0
		}
		out = append(out, models.Suggestion{
			Text:       strings.ToLower(term),
			Kind:       models.KindTrending,
			Confidence: conf,
		})
	}
	return out
}

// candidatePhrases returns the completion phrases a document contributes.
func candidatePhrases(doc *models.IndexedDocument) []string {
	phrases := make([]string, 0, 3+len(doc.Tags))
	phrases = append(phrases, strings.ToLower(strings.TrimSpace(doc.Title)))
	if doc.Brand != "" {
		phrases = append(phrases, strings.ToLower(doc.Brand))
	}
	if doc.Category != "" {
		phrases = append(phrases, strings.ToLower(doc.Category))
	}
	for _, tag := range doc.Tags {
		phrases = append(phrases, strings.ToLower(strings.TrimSpace(tag)))
	}
	return phrases
}

// cooccurring returns the document's tags and category, the terms its
// phrases are considered related to.
func cooccurring(doc *models.IndexedDocument) []string {
	out := make([]string, 0, 1+len(doc.Tags))
	if doc.Category != "" {
		out = append(out, strings.ToLower(doc.Category))
	}
	for _, tag := range doc.Tags {
		out = append(out, strings.ToLower(strings.TrimSpace(tag)))
	}
	return out
}

// closestTerm finds the dictionary term with the smallest edit distance to
// tok, up to maxEditDistance. Vocabulary terms are checked before corpus
// terms; ties keep the first (deterministic order).
func closestTerm(tok string, vocabTerms []string, corpusTerms map[string]struct{}) (string, int) {
	if len(tok) < 3 {
		return "", 0
	}
	best := ""
	bestDist := maxEditDistance + 1

	consider := func(term string) {
		if term == tok {
			return
		}
		if diff := len(term) - len(tok); diff > maxEditDistance || diff < -maxEditDistance {
			return
		}
		if d := levenshteinDistance(tok, term); d < bestDist {
			best = term
			bestDist = d
		}
	}

	for _, term := range vocabTerms {
		consider(term)
	}
	sorted := make([]string, 0, len(corpusTerms))
	for term := range corpusTerms {
		sorted = append(sorted, term)
	}
	sort.Strings(sorted)
	for _, term := range sorted {
		consider(term)
	}

	if bestDist > maxEditDistance {
		return "", 0
	}
	return best, bestDist
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
