package aggregate

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/mitsukeru/internal/models"
)

// fileEntry is one entry in a YAML content file.
type fileEntry struct {
	Kind        string    `yaml:"kind"`
	Path        []string  `yaml:"path"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	URL         string    `yaml:"url"`
	Category    string    `yaml:"category"`
	Brand       string    `yaml:"brand"`
	Price       *float64  `yaml:"price"`
	Rating      *float64  `yaml:"rating"`
	Tags        []string  `yaml:"tags"`
	AddedAt     time.Time `yaml:"added_at"`
	Inactive    bool      `yaml:"inactive"`
}

type fileContent struct {
	Entries []fileEntry `yaml:"entries"`
}

// FileSource reads content entries from a YAML file. The file is re-read on
// every aggregation pass, so edits show up on the next refresh.
type FileSource struct {
	name string
	path string
}

// NewFileSource creates a source named name backed by the YAML file at path.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

// Name implements Source.
func (f *FileSource) Name() string { return f.name }

// Entries implements Source.
func (f *FileSource) Entries(ctx context.Context) ([]RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	var content fileContent
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}

	entries := make([]RawEntry, 0, len(content.Entries))
	for _, e := range content.Entries {
		kind := models.TypeProduct
		if e.Kind != "" {
			kind, err = models.ParseDocumentType(e.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.path, err)
			}
		}
		entries = append(entries, RawEntry{
			Kind:        kind,
			Path:        e.Path,
			Title:       e.Title,
			Description: e.Description,
			URL:         e.URL,
			Category:    e.Category,
			Brand:       e.Brand,
			Price:       e.Price,
			Rating:      e.Rating,
			Tags:        e.Tags,
			AddedAt:     e.AddedAt,
			Inactive:    e.Inactive,
		})
	}
	return entries, nil
}
