package models

// ScoredResult pairs a document with its relevance score for one query.
// Scores are ephemeral and never persisted.
type ScoredResult struct {
	Document IndexedDocument `json:"document"`
	Score    float64         `json:"score"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []ScoredResult `json:"results"`
	Total     int            `json:"total"`
	QueryTime int64          `json:"query_time_ms"`
	Query     string         `json:"query"`
	// MLEnhanced reports whether the re-ranking stage was applied. False when
	// re-ranking was not requested, timed out, or failed (base ranking used).
	MLEnhanced bool `json:"ml_enhanced"`
}
