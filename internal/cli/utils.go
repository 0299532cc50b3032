// Package cli provides CLI output utilities for Mitsukeru.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/mitsukeru/internal/models"
	"github.com/hyperjump/mitsukeru/pkg/utils"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one result per line, grep-friendly.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for i, result := range response.Results {
			fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\n", i+1, result.Score, result.Document.ID, result.Document.Title)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms", response.Total, response.QueryTime)
	if response.MLEnhanced {
		fmt.Fprint(w, " (re-ranked)")
	}
	fmt.Fprint(w, "\n\n")
	for i, result := range response.Results {
		doc := &result.Document
		fmt.Fprintf(w, "%d. %s  (score %.2f)\n", i+1, doc.Title, result.Score)
		fmt.Fprintf(w, "   id: %s  type: %s", doc.ID, doc.Type)
		if doc.Brand != "" {
			fmt.Fprintf(w, "  brand: %s", doc.Brand)
		}
		if doc.Price != nil {
			fmt.Fprintf(w, "  price: $%.2f", *doc.Price)
		}
		fmt.Fprintln(w)
		if doc.Description != "" {
			fmt.Fprintf(w, "   %s\n", utils.Truncate(doc.Description, 120))
		}
	}
}

// WriteSuggestions writes autocomplete suggestions to w in the given format.
func WriteSuggestions(w io.Writer, response *models.SuggestResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for _, s := range response.Suggestions {
			fmt.Fprintf(w, "%s\t%.2f\t%s\n", s.Kind, s.Confidence, s.Text)
		}
		return nil
	default:
		if len(response.Suggestions) == 0 {
			fmt.Fprintf(w, "No suggestions for %q\n", response.Query)
			return nil
		}
		for _, s := range response.Suggestions {
			fmt.Fprintf(w, "%-12s %.2f  %s\n", s.Kind.String(), s.Confidence, s.Text)
		}
		return nil
	}
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
