package models

// Recommendation is a single ranked result. Poster and Overview may be filled
// in by the enrichment layer after ranking; ranking itself never depends on them.
type Recommendation struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Type        ContentType `json:"type"`
	Similarity  float64     `json:"similarity"`
	Overview    string      `json:"overview"`
	Rating      float64     `json:"rating"`
	ReleaseDate string      `json:"release_date"`
	Poster      string      `json:"poster,omitempty"`
}

// RecommendResponse is the payload for a recommendation request. Results are
// ordered by descending similarity with ties broken by ascending id.
type RecommendResponse struct {
	Results   []*Recommendation `json:"results"`
	Query     string            `json:"query"`
	Anchor    string            `json:"anchor_id"`
	Message   string            `json:"message,omitempty"`
	QueryTime int64             `json:"query_time_ms"`
}
