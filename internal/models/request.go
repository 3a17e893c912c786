package models

import "fmt"

// SortMode selects an alternate ordering applied to the selected candidate
// set. The default (relevance) orders by boosted similarity.
type SortMode string

const (
	SortRelevance SortMode = ""
	SortLatest    SortMode = "latest"
	SortOldest    SortMode = "oldest"
	SortPopular   SortMode = "popular"
	SortTopRated  SortMode = "top_rated"
)

// DefaultTopN is the number of recommendations returned when a request does
// not specify one.
const DefaultTopN = 10

// RecommendRequest is one recommendation call: a free-text title, the
// declared content type, and how many results to return.
type RecommendRequest struct {
	Title string   `json:"title"`
	Type  string   `json:"type"`
	TopN  int      `json:"top_n,omitempty"`
	Sort  SortMode `json:"sort,omitempty"`

	// ContentType is the parsed Type, populated by Validate.
	ContentType ContentType `json:"-"`
}

// Validate checks required fields, parses the content type, and clamps TopN.
// defaultTopN <= 0 falls back to DefaultTopN; maxTopN <= 0 means no upper
// clamp.
func (r *RecommendRequest) Validate(defaultTopN, maxTopN int) error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	ct, err := ParseContentType(r.Type)
	if err != nil {
		return err
	}
	r.ContentType = ct
	if r.TopN <= 0 {
		if defaultTopN > 0 {
			r.TopN = defaultTopN
		} else {
			r.TopN = DefaultTopN
		}
	}
	if maxTopN > 0 && r.TopN > maxTopN {
		r.TopN = maxTopN
	}
	switch r.Sort {
	case SortRelevance, SortLatest, SortOldest, SortPopular, SortTopRated:
	default:
		return fmt.Errorf("unknown sort mode %q", r.Sort)
	}
	return nil
}
