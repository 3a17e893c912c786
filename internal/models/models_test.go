package models

import "testing"

func TestParseContentType(t *testing.T) {
	tests := []struct {
		input   string
		want    ContentType
		wantErr bool
	}{
		{"movie", TypeMovie, false},
		{"Movies", TypeMovie, false},
		{"FILM", TypeMovie, false},
		{"series", TypeSeries, false},
		{"TV", TypeSeries, false},
		{"tv show", TypeSeries, false},
		{"web series", TypeSeries, false},
		{"anime", TypeAnime, false},
		{"Animes", TypeAnime, false},
		{"podcast", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseContentType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseContentType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseContentType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRecommendRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		req         RecommendRequest
		defaultTopN int
		maxTopN     int
		wantN       int
		wantErr     bool
	}{
		{"defaults top_n", RecommendRequest{Title: "Inception", Type: "movie"}, 0, 50, DefaultTopN, false},
		{"configured default top_n", RecommendRequest{Title: "Inception", Type: "movie"}, 25, 50, 25, false},
		{"clamps top_n", RecommendRequest{Title: "Inception", Type: "movie", TopN: 500}, 0, 50, 50, false},
		{"keeps explicit top_n", RecommendRequest{Title: "Inception", Type: "movie", TopN: 3}, 25, 50, 3, false},
		{"no clamp when max unset", RecommendRequest{Title: "Inception", Type: "movie", TopN: 500}, 0, 0, 500, false},
		{"missing title", RecommendRequest{Type: "movie"}, 0, 50, 0, true},
		{"bad type", RecommendRequest{Title: "Inception", Type: "documentary"}, 0, 50, 0, true},
		{"bad sort mode", RecommendRequest{Title: "Inception", Type: "movie", Sort: "alphabetical"}, 0, 50, 0, true},
		{"valid sort mode", RecommendRequest{Title: "Inception", Type: "movie", Sort: SortLatest}, 0, 50, DefaultTopN, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(tt.defaultTopN, tt.maxTopN)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.req.TopN != tt.wantN {
				t.Errorf("TopN = %d, want %d", tt.req.TopN, tt.wantN)
			}
		})
	}
}

func TestRecommendRequest_ValidateParsesType(t *testing.T) {
	req := RecommendRequest{Title: "Breaking Bad", Type: "tv show"}
	if err := req.Validate(0, 0); err != nil {
		t.Fatal(err)
	}
	if req.ContentType != TypeSeries {
		t.Errorf("ContentType = %q, want %q", req.ContentType, TypeSeries)
	}
}
