// Package aggregate pulls content from external source collaborators (page
// registry, category taxonomy, product and vendor catalogs, admin sections)
// and maps it into indexable documents with deterministic ids.
package aggregate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hyperjump/mitsukeru/internal/models"
)

// ErrSourceUnavailable marks a content source that could not be read.
// Aggregation logs it and continues with the remaining sources.
var ErrSourceUnavailable = errors.New("content source unavailable")

// RawEntry is one entry as delivered by a content source, before mapping.
type RawEntry struct {
	Kind models.DocumentType
	// Path is the entry's position in the source hierarchy, e.g.
	// ["fashion", "womens", "dresses"]. Together with Kind and Title it
	// determines the document id, so the same logical entity always maps to
	// the same id across aggregation runs.
	Path        []string
	Title       string
	Description string
	URL         string
	Category    string
	Brand       string
	Price       *float64
	Rating      *float64
	Tags        []string
	AddedAt     time.Time
	// Inactive marks entries that stay indexed but are excluded from search.
	Inactive bool
}

// Source is a content collaborator the aggregator pulls from. Catalog and
// registry implementations live outside this subsystem.
type Source interface {
	// Name identifies the source in logs and degradation reports.
	Name() string
	// Entries lists the source's current content.
	Entries(ctx context.Context) ([]RawEntry, error)
}

// DocumentID builds the deterministic id for an entry:
// kind:segment:...:title-slug, everything lowercased and slugged.
func DocumentID(kind models.DocumentType, path []string, title string) string {
	parts := make([]string, 0, len(path)+2)
	parts = append(parts, kind.String())
	for _, seg := range path {
		if s := slug(seg); s != "" {
			parts = append(parts, s)
		}
	}
	if s := slug(title); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ":")
}

// slug lowercases and converts separator runs to single dashes.
func slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// mapEntry converts a raw entry into an indexed document.
func mapEntry(entry RawEntry) models.IndexedDocument {
	return models.IndexedDocument{
		ID:          DocumentID(entry.Kind, entry.Path, entry.Title),
		Title:       entry.Title,
		Description: entry.Description,
		Type:        entry.Kind,
		URL:         entry.URL,
		Category:    entry.Category,
		Brand:       entry.Brand,
		Price:       entry.Price,
		Rating:      entry.Rating,
		Tags:        entry.Tags,
		DateAdded:   entry.AddedAt,
		IsActive:    !entry.Inactive,
	}
}
