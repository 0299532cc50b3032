// Package ranking provides field-weighted relevance scoring for indexed documents.
package ranking

import "time"

// Weights holds the tunable scoring configuration. The defaults carry the
// values the storefront shipped with; none of them are load-bearing business
// semantics, so they are configuration rather than constants.
type Weights struct {
	// Per-term field weights.
	Title         float64 `yaml:"title"`          // default: 10
	CategoryBrand float64 `yaml:"category_brand"` // default: 7
	Description   float64 `yaml:"description"`    // default: 5
	Tag           float64 `yaml:"tag"`            // default: 3
	Fulltext      float64 `yaml:"fulltext"`       // default: 1

	// Flat bonus for documents added within the recency window. Applied only
	// to documents that already matched at least one term.
	RecencyBonus      float64 `yaml:"recency_bonus"`       // default: 2
	RecencyWindowDays int     `yaml:"recency_window_days"` // default: 7
}

// RecencyWindow returns the recency window as a duration.
func (w *Weights) RecencyWindow() time.Duration {
	return time.Duration(w.RecencyWindowDays) * 24 * time.Hour
}

// DefaultWeights returns the default scoring configuration.
func DefaultWeights() *Weights {
	return &Weights{
		Title:             10,
		CategoryBrand:     7,
		Description:       5,
		Tag:               3,
		Fulltext:          1,
		RecencyBonus:      2,
		RecencyWindowDays: 7,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (w *Weights) ApplyDefaults() {
	defaults := DefaultWeights()

	if w.Title == 0 {
		w.Title = defaults.Title
	}
	if w.CategoryBrand == 0 {
		w.CategoryBrand = defaults.CategoryBrand
	}
	if w.Description == 0 {
		w.Description = defaults.Description
	}
	if w.Tag == 0 {
		w.Tag = defaults.Tag
	}
	if w.Fulltext == 0 {
		w.Fulltext = defaults.Fulltext
	}
	if w.RecencyBonus == 0 {
		w.RecencyBonus = defaults.RecencyBonus
	}
	if w.RecencyWindowDays == 0 {
		w.RecencyWindowDays = defaults.RecencyWindowDays
	}
}
