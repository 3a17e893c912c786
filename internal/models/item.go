// Package models defines core data structures for catalog items, requests, and results.
package models

import "fmt"

// ContentType is the closed enumeration of catalog categories. It is always
// authoritative from ingestion, never inferred at query time.
type ContentType string

const (
	TypeMovie  ContentType = "movie"
	TypeSeries ContentType = "series"
	TypeAnime  ContentType = "anime"
)

// ParseContentType normalizes a raw type string from a dump or request into
// one of the closed enum values. Common dataset variants ("movies", "tv",
// "film", ...) map to their canonical type.
func ParseContentType(s string) (ContentType, error) {
	switch normalizeToken(s) {
	case "movie", "movies", "film", "films":
		return TypeMovie, nil
	case "series", "tv", "tv show", "tv series", "web series", "show":
		return TypeSeries, nil
	case "anime", "animes":
		return TypeAnime, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// ContentTypes returns all valid content types in stable order.
func ContentTypes() []ContentType {
	return []ContentType{TypeMovie, TypeSeries, TypeAnime}
}

// Metadata holds informational fields carried alongside an item. None of
// these participate in relevance scoring.
type Metadata struct {
	Overview    string  `json:"overview,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
	Year        int     `json:"year,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
}

// CatalogItem is one row of the catalog: a title with its embedding and
// grouping keys. Items are immutable once the catalog is built.
type CatalogItem struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Type         ContentType `json:"type"`
	FranchiseKey string      `json:"franchise_key,omitempty"`
	Embedding    []float32   `json:"-"`
	Metadata     Metadata    `json:"metadata"`
}

func normalizeToken(s string) string {
	out := make([]rune, 0, len(s))
	space := true
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
			space = false
		case r == ' ' || r == '\t' || r == '\n':
			if !space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = true
		default:
			out = append(out, r)
			space = false
		}
	}
	for len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return string(out)
}
