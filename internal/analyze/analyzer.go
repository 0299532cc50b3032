// Package analyze classifies search queries: intent, known entities, and
// price constraints. Analysis is pure and deterministic; unmatched patterns
// leave the corresponding fields empty rather than erroring.
package analyze

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/mitsukeru/internal/models"
	"github.com/hyperjump/mitsukeru/internal/ranking"
	"github.com/hyperjump/mitsukeru/internal/vocab"
)

// Intent keyword patterns, checked in priority order:
// navigation > comparison > recommendation > help. Default is product.
var intentPatterns = []struct {
	intent   models.Intent
	keywords []string
}{
	{models.IntentNavigation, []string{"go to", "open ", "take me", "navigate", "where is", "show me the"}},
	{models.IntentComparison, []string{" vs ", " versus ", "compare", "difference between", "better than"}},
	{models.IntentRecommendation, []string{"best ", "recommend", "top rated", "which ", "should i buy", "good "}},
	{models.IntentHelp, []string{"how to", "how do", "help", "support", "return policy", "track my", "contact"}},
}

var (
	// "between 100 and 200"; "and" is only a separator inside this form.
	betweenPattern = regexp.MustCompile(`between\s+\$?(\d+(?:\.\d+)?)\s+and\s+\$?(\d+(?:\.\d+)?)`)
	// "100 to 200", "100-200", with optional $.
	rangePattern = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)\s*(?:-|to)\s*\$?(\d+(?:\.\d+)?)`)
	// "under 100", "below $50", "less than 100", "cheaper than 100".
	maxPattern = regexp.MustCompile(`(?:under|below|less than|cheaper than|at most|max)\s+\$?(\d+(?:\.\d+)?)`)
	// "over 100", "above $50", "more than 100".
	minPattern = regexp.MustCompile(`(?:over|above|more than|at least|min)\s+\$?(\d+(?:\.\d+)?)`)
)

// Analyzer turns raw query strings into analyzed queries using the
// controlled vocabularies for entity extraction.
type Analyzer struct {
	vocab *vocab.Registry
}

// NewAnalyzer creates an Analyzer. Nil registry falls back to the built-in
// vocabulary.
func NewAnalyzer(registry *vocab.Registry) *Analyzer {
	if registry == nil {
		registry = vocab.NewRegistry(nil)
	}
	return &Analyzer{vocab: registry}
}

// Analyze parses a raw query string into a models.Query.
func (a *Analyzer) Analyze(raw string) models.Query {
	lower := strings.ToLower(raw)
	q := models.Query{
		Raw:    raw,
		Tokens: ranking.Tokenize(raw),
		Intent: classifyIntent(lower),
	}
	q.Entities = a.extractEntities(q.Tokens)
	q.PriceRange = extractPriceRange(lower)
	return q
}

// classifyIntent runs the ordered keyword checks. The surrounding-space
// padding lets patterns like " vs " anchor on word boundaries.
func classifyIntent(lower string) models.Intent {
	padded := " " + lower + " "
	for _, p := range intentPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(padded, kw) {
				return p.intent
			}
		}
	}
	return models.IntentProduct
}

// extractEntities matches unigrams and bigrams against the brand and
// category vocabularies. Matches are returned lowercased, in query order,
// without duplicates.
func (a *Analyzer) extractEntities(tokens []string) []string {
	v := a.vocab.Current()
	known := make(map[string]struct{}, len(v.Brands)+len(v.Categories))
	for _, term := range v.Terms() {
		known[term] = struct{}{}
	}

	var entities []string
	seen := make(map[string]struct{})
	add := func(candidate string) {
		if _, ok := known[candidate]; !ok {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		entities = append(entities, candidate)
	}

	for i, tok := range tokens {
		add(tok)
		if i+1 < len(tokens) {
			add(tok + " " + tokens[i+1])
		}
	}
	return entities
}

// extractPriceRange applies the price regex families in order: explicit
// ranges first, then single bounds. Returns nil when nothing matches.
func extractPriceRange(lower string) *models.PriceRange {
	for _, re := range []*regexp.Regexp{betweenPattern, rangePattern} {
		if m := re.FindStringSubmatch(lower); m != nil {
			lo, err1 := strconv.ParseFloat(m[1], 64)
			hi, err2 := strconv.ParseFloat(m[2], 64)
			if err1 == nil && err2 == nil && lo <= hi {
				return &models.PriceRange{Min: &lo, Max: &hi}
			}
		}
	}
	if m := maxPattern.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &models.PriceRange{Max: &v}
		}
	}
	if m := minPattern.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &models.PriceRange{Min: &v}
		}
	}
	return nil
}
