package models

// SuggestionKind identifies how a suggestion was generated.
type SuggestionKind int

const (
	// KindCompletion is a prefix completion of the partial query.
	KindCompletion SuggestionKind = iota
	// KindCorrection is a typo correction of the partial query.
	KindCorrection
	// KindRelated is a term co-occurring with the top completion matches.
	KindRelated
	// KindTrending is a currently popular query.
	KindTrending
)

// String returns the wire name of the suggestion kind.
func (k SuggestionKind) String() string {
	switch k {
	case KindCompletion:
		return "completion"
	case KindCorrection:
		return "correction"
	case KindRelated:
		return "related"
	case KindTrending:
		return "trending"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its wire name.
func (k SuggestionKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Suggestion is a single autocomplete candidate.
type Suggestion struct {
	Text string         `json:"text"`
	Kind SuggestionKind `json:"kind"`
	// Confidence is in [0,1]; candidates are ranked by it descending.
	Confidence float64 `json:"confidence"`
}

// SuggestResponse is the response for a suggestion request.
type SuggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
	Query       string       `json:"query"`
}
