package models

// Intent classifies what a search query is trying to accomplish.
type Intent int

const (
	// IntentProduct is the default: the user is looking for catalog items.
	IntentProduct Intent = iota
	// IntentNavigation means the user wants to reach a page or section.
	IntentNavigation
	// IntentComparison means the user is comparing alternatives.
	IntentComparison
	// IntentRecommendation means the user wants advice on what to buy.
	IntentRecommendation
	// IntentHelp means the user is looking for support content.
	IntentHelp
)

// String returns the wire name of the intent.
func (i Intent) String() string {
	switch i {
	case IntentProduct:
		return "product"
	case IntentNavigation:
		return "navigation"
	case IntentComparison:
		return "comparison"
	case IntentRecommendation:
		return "recommendation"
	case IntentHelp:
		return "help"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the intent as its wire name.
func (i Intent) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

// PriceRange is a price constraint extracted from a query. Nil bounds are open.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether price falls inside the range.
func (p *PriceRange) Contains(price float64) bool {
	if p == nil {
		return true
	}
	if p.Min != nil && price < *p.Min {
		return false
	}
	if p.Max != nil && price > *p.Max {
		return false
	}
	return true
}

// Query is the analyzed form of a raw search string.
type Query struct {
	Raw        string      `json:"raw"`
	Tokens     []string    `json:"tokens"`
	Intent     Intent      `json:"intent"`
	Entities   []string    `json:"entities,omitempty"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
}

// HasEntity reports whether the query mentions the entity (already lowercased
// during analysis, so comparison is exact).
func (q *Query) HasEntity(entity string) bool {
	for _, e := range q.Entities {
		if e == entity {
			return true
		}
	}
	return false
}
