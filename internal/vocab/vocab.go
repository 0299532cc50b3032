// Package vocab holds the controlled vocabularies used for entity extraction
// and suggestion generation: brand and category names, a misspelling table,
// and the curated trending list. Vocabularies load from a YAML file and can
// be hot-reloaded while searches are in flight.
package vocab

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Vocabulary is one immutable snapshot of the controlled vocabularies.
// All entries are stored lowercased.
type Vocabulary struct {
	Brands     []string          `yaml:"brands"`
	Categories []string          `yaml:"categories"`
	// Misspellings maps a common typo to its correction.
	Misspellings map[string]string `yaml:"misspellings"`
	// Trending is the curated list of currently promoted queries.
	Trending []string `yaml:"trending"`
}

// normalize lowercases every entry in place.
func (v *Vocabulary) normalize() {
	for i, b := range v.Brands {
		v.Brands[i] = strings.ToLower(strings.TrimSpace(b))
	}
	for i, c := range v.Categories {
		v.Categories[i] = strings.ToLower(strings.TrimSpace(c))
	}
	lowered := make(map[string]string, len(v.Misspellings))
	for typo, fix := range v.Misspellings {
		lowered[strings.ToLower(typo)] = strings.ToLower(fix)
	}
	v.Misspellings = lowered
	for i, t := range v.Trending {
		v.Trending[i] = strings.ToLower(strings.TrimSpace(t))
	}
}

// Terms returns all brand and category names, brands first.
func (v *Vocabulary) Terms() []string {
	terms := make([]string, 0, len(v.Brands)+len(v.Categories))
	terms = append(terms, v.Brands...)
	terms = append(terms, v.Categories...)
	return terms
}

// Default returns the built-in vocabulary used when no file is configured.
func Default() *Vocabulary {
	v := &Vocabulary{
		Brands: []string{
			"samsung", "apple", "sony", "nike", "adidas", "lego", "philips", "dyson",
		},
		Categories: []string{
			"electronics", "fashion", "home", "garden", "toys", "sports", "beauty", "books",
		},
		Misspellings: map[string]string{
			"samsng":   "samsung",
			"iphne":    "iphone",
			"labtop":   "laptop",
			"headphne": "headphone",
			"televsion": "television",
			"sneekers": "sneakers",
		},
		Trending: []string{
			"wireless earbuds", "air fryer", "running shoes", "smart watch", "robot vacuum",
		},
	}
	v.normalize()
	return v
}

// LoadFile reads a vocabulary YAML file.
func LoadFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	v.normalize()
	return &v, nil
}

// Registry hands out the current vocabulary snapshot. Replace swaps the
// snapshot atomically so readers never see a half-loaded vocabulary.
type Registry struct {
	current atomic.Pointer[Vocabulary]
}

// NewRegistry creates a registry seeded with v, or the default when nil.
func NewRegistry(v *Vocabulary) *Registry {
	r := &Registry{}
	if v == nil {
		v = Default()
	}
	r.current.Store(v)
	return r
}

// Current returns the active snapshot. The returned value must not be mutated.
func (r *Registry) Current() *Vocabulary {
	return r.current.Load()
}

// Replace swaps in a new snapshot.
func (r *Registry) Replace(v *Vocabulary) {
	if v != nil {
		r.current.Store(v)
	}
}

// ReloadFile loads path and swaps it in. The previous snapshot stays active
// on load failure.
func (r *Registry) ReloadFile(path string) error {
	v, err := LoadFile(path)
	if err != nil {
		return err
	}
	r.Replace(v)
	return nil
}
