package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/hyperjump/mitsukeru/internal/models"
)

// Boosts holds the heuristic provider's additive score adjustments.
type Boosts struct {
	// BrandEntityInTitle applies when a recognized brand entity from the
	// query appears in the document title.
	BrandEntityInTitle float64 `yaml:"brand_entity_in_title"` // default: 0.2
	// PreferredCategory applies when the document's category is one of the
	// user's preferred categories.
	PreferredCategory float64 `yaml:"preferred_category"` // default: 0.15
	// PriceInPreferredRange applies when the document's price falls inside
	// the user's preferred range.
	PriceInPreferredRange float64 `yaml:"price_in_preferred_range"` // default: 0.1
}

// DefaultBoosts returns the default heuristic adjustments.
func DefaultBoosts() Boosts {
	return Boosts{
		BrandEntityInTitle:    0.2,
		PreferredCategory:     0.15,
		PriceInPreferredRange: 0.1,
	}
}

// Heuristic is the default re-rank provider: a deterministic blend of the
// base score with entity and preference boosts. No hidden state.
type Heuristic struct {
	boosts Boosts
}

// NewHeuristic creates the default provider. Zero boosts use defaults.
func NewHeuristic(boosts Boosts) *Heuristic {
	defaults := DefaultBoosts()
	if boosts.BrandEntityInTitle == 0 {
		boosts.BrandEntityInTitle = defaults.BrandEntityInTitle
	}
	if boosts.PreferredCategory == 0 {
		boosts.PreferredCategory = defaults.PreferredCategory
	}
	if boosts.PriceInPreferredRange == 0 {
		boosts.PriceInPreferredRange = defaults.PriceInPreferredRange
	}
	return &Heuristic{boosts: boosts}
}

// Name implements Provider.
func (h *Heuristic) Name() string { return "heuristic" }

// Score implements Provider.
func (h *Heuristic) Score(_ context.Context, query models.Query, candidates []models.ScoredResult, user *UserContext) ([]models.ScoredResult, error) {
	out := make([]models.ScoredResult, len(candidates))
	copy(out, candidates)

	for i := range out {
		doc := &out[i].Document
		title := strings.ToLower(doc.Title)

		for _, entity := range query.Entities {
			if strings.Contains(title, entity) {
				out[i].Score += h.boosts.BrandEntityInTitle
				break
			}
		}
		if user == nil {
			continue
		}
		for _, cat := range user.Categories {
			if strings.EqualFold(doc.Category, cat) {
				out[i].Score += h.boosts.PreferredCategory
				break
			}
		}
		if doc.Price != nil && user.PriceRange != nil && user.PriceRange.Contains(*doc.Price) {
			out[i].Score += h.boosts.PriceInPreferredRange
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// StaticPersonalization is a Personalization backed by a fixed preference
// table, keyed by user id.
type StaticPersonalization struct {
	prefs map[string]*UserContext
}

// NewStaticPersonalization creates a static preference store.
func NewStaticPersonalization(prefs map[string]*UserContext) *StaticPersonalization {
	if prefs == nil {
		prefs = make(map[string]*UserContext)
	}
	return &StaticPersonalization{prefs: prefs}
}

// Preferences implements Personalization. Unknown users get no preferences
// and no error.
func (s *StaticPersonalization) Preferences(_ context.Context, userID string) (*UserContext, error) {
	if p, ok := s.prefs[userID]; ok {
		return p, nil
	}
	return nil, nil
}
