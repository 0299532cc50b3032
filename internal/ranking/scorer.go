package ranking

import (
	"time"

	"github.com/hyperjump/mitsukeru/internal/models"
)

// Scorer computes a document's relevance score for a set of query tokens.
// Matching is token-level: a term hits a field only when it equals one of the
// field's normalized tokens, so "phone" does not match "iPhone".
type Scorer struct {
	weights *Weights
	now     func() time.Time
}

// NewScorer creates a Scorer with the given weights. Nil weights use defaults.
func NewScorer(weights *Weights) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	weights.ApplyDefaults()
	return &Scorer{weights: weights, now: time.Now}
}

// WithClock overrides the clock used for the recency bonus. Used in tests.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Weights returns the active scoring configuration.
func (s *Scorer) Weights() *Weights {
	return s.weights
}

// Score returns the weighted relevance of doc for the given tokens. Tokens
// must already be normalized (lowercase). A zero score means no match.
//
// For each token, every matching field contributes its weight. The fulltext
// weight stacks on top of field hits because SearchableText concatenates all
// fields.
func (s *Scorer) Score(doc *models.IndexedDocument, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	title := tokenSet(doc.Title)
	catBrand := tokenSet(doc.Category + " " + doc.Brand)
	description := tokenSet(doc.Description)
	tags := make(map[string]struct{})
	for _, tag := range doc.Tags {
		for _, tok := range Tokenize(tag) {
			tags[tok] = struct{}{}
		}
	}
	fulltext := tokenSet(doc.SearchableText)

	var score float64
	for _, tok := range tokens {
		if _, ok := title[tok]; ok {
			score += s.weights.Title
		}
		if _, ok := catBrand[tok]; ok {
			score += s.weights.CategoryBrand
		}
		if _, ok := description[tok]; ok {
			score += s.weights.Description
		}
		if _, ok := tags[tok]; ok {
			score += s.weights.Tag
		}
		if _, ok := fulltext[tok]; ok {
			score += s.weights.Fulltext
		}
	}

	if score > 0 && s.now().Sub(doc.DateAdded) < s.weights.RecencyWindow() {
		score += s.weights.RecencyBonus
	}
	return score
}

func tokenSet(text string) map[string]struct{} {
	toks := Tokenize(text)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}
