// Package models defines core data structures for indexed documents, queries, and results.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDocument indicates a document that cannot be indexed (missing or blank id).
var ErrInvalidDocument = errors.New("invalid document: id is required")

// DocumentType identifies the kind of content a document represents.
type DocumentType int

const (
	// TypeProduct is a product catalog entry.
	TypeProduct DocumentType = iota
	// TypeCategory is a node in the category taxonomy (any nesting level).
	TypeCategory
	// TypePage is a static storefront page.
	TypePage
	// TypeVendor is a vendor/seller profile.
	TypeVendor
	// TypeBrand is a brand landing entry.
	TypeBrand
	// TypeArticle is editorial content (blog posts, guides, admin help).
	TypeArticle
)

// String returns the wire name of the document type.
func (t DocumentType) String() string {
	switch t {
	case TypeProduct:
		return "product"
	case TypeCategory:
		return "category"
	case TypePage:
		return "page"
	case TypeVendor:
		return "vendor"
	case TypeBrand:
		return "brand"
	case TypeArticle:
		return "article"
	default:
		return "unknown"
	}
}

// ParseDocumentType parses a wire name into a DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "product":
		return TypeProduct, nil
	case "category":
		return TypeCategory, nil
	case "page":
		return TypePage, nil
	case "vendor":
		return TypeVendor, nil
	case "brand":
		return TypeBrand, nil
	case "article":
		return TypeArticle, nil
	default:
		return TypeProduct, fmt.Errorf("unknown document type %q", s)
	}
}

// MarshalJSON encodes the type as its wire name.
func (t DocumentType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a wire name into a DocumentType.
func (t *DocumentType) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocumentType(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IndexedDocument is a single searchable entry aggregated from a content source.
// ID is globally unique and stable across rebuilds; a second upsert with the
// same id replaces the previous content.
type IndexedDocument struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        DocumentType `json:"type"`
	URL         string       `json:"url"`
	Category    string       `json:"category,omitempty"`
	Brand       string       `json:"brand,omitempty"`
	Price       *float64     `json:"price,omitempty"`
	Rating      *float64     `json:"rating,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	DateAdded   time.Time    `json:"date_added"`
	IsActive    bool         `json:"is_active"`

	// SearchableText is derived from the other fields; it is recomputed on
	// every upsert and never read from input.
	SearchableText string `json:"-"`
}

// Validate checks that the document can be indexed.
func (d *IndexedDocument) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrInvalidDocument
	}
	return nil
}

// ComputeSearchableText rebuilds the derived full-text field from the
// document's current content.
func (d *IndexedDocument) ComputeSearchableText() {
	parts := make([]string, 0, 4+len(d.Tags))
	parts = append(parts, d.Title, d.Description, d.Category, d.Brand)
	parts = append(parts, d.Tags...)
	d.SearchableText = strings.ToLower(strings.Join(parts, " "))
}

// NormalizeTags deduplicates tags case-insensitively, preserving first-seen order.
func (d *IndexedDocument) NormalizeTags() {
	if len(d.Tags) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(d.Tags))
	tags := d.Tags[:0]
	for _, tag := range d.Tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	d.Tags = tags
}

// HasTag reports whether the document carries the tag (case-insensitive).
func (d *IndexedDocument) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
