package catalog

import (
	"errors"
	"testing"

	"github.com/cinesense/cinesense/internal/models"
)

func testItems() []*models.CatalogItem {
	return []*models.CatalogItem{
		{ID: "m1", Title: "Inception", Type: models.TypeMovie, Embedding: []float32{1, 0}},
		{ID: "m2", Title: "Interstellar", Type: models.TypeMovie, Embedding: []float32{0, 1}},
		{ID: "m3", Title: "The Dark Knight Rises", Type: models.TypeMovie, FranchiseKey: "dark knight", Embedding: []float32{1, 0}},
		{ID: "s1", Title: "Breaking Bad", Type: models.TypeSeries, Embedding: []float32{0, 1}},
		{ID: "a1", Title: "Attack on Titan", Type: models.TypeAnime, Embedding: []float32{1, 0}},
	}
}

func TestNewStore_SortsByID(t *testing.T) {
	items := testItems()
	// Shuffle input order; the store must normalize it.
	items[0], items[4] = items[4], items[0]
	s, err := NewStore(items, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	got := s.Items()
	for i := 1; i < len(got); i++ {
		if got[i-1].ID >= got[i].ID {
			t.Fatalf("items not in ascending id order: %s >= %s", got[i-1].ID, got[i].ID)
		}
	}
}

func TestNewStore_RejectsDuplicateID(t *testing.T) {
	items := testItems()
	items = append(items, &models.CatalogItem{ID: "m1", Title: "Other", Type: models.TypeMovie})
	if _, err := NewStore(items, 0.8); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestLookupByTitle_Exact(t *testing.T) {
	s, err := NewStore(testItems(), 0.8)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		query  string
		ct     models.ContentType
		wantID string
	}{
		{"Inception", models.TypeMovie, "m1"},
		{"inception", models.TypeMovie, "m1"},
		{"  INCEPTION  ", models.TypeMovie, "m1"},
		{"the   dark knight rises", models.TypeMovie, "m3"},
		{"breaking bad", models.TypeSeries, "s1"},
	}
	for _, tt := range tests {
		it, err := s.LookupByTitle(tt.query, tt.ct)
		if err != nil {
			t.Fatalf("LookupByTitle(%q, %s) unexpected error: %v", tt.query, tt.ct, err)
		}
		if it.ID != tt.wantID {
			t.Errorf("LookupByTitle(%q, %s) = %s, want %s", tt.query, tt.ct, it.ID, tt.wantID)
		}
	}
}

func TestLookupByTitle_FuzzyAboveThreshold(t *testing.T) {
	s, err := NewStore(testItems(), 0.8)
	if err != nil {
		t.Fatal(err)
	}
	// One typo in "interstellar" keeps similarity above 0.8.
	it, err := s.LookupByTitle("Interstelar", models.TypeMovie)
	if err != nil {
		t.Fatal(err)
	}
	if it.ID != "m2" {
		t.Errorf("fuzzy match = %s, want m2", it.ID)
	}
}

func TestLookupByTitle_BelowThresholdIsNotFound(t *testing.T) {
	s, err := NewStore(testItems(), 0.8)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.LookupByTitle("Completely Unrelated Film", models.TypeMovie)
	if !errors.Is(err, ErrTitleNotFound) {
		t.Fatalf("expected ErrTitleNotFound, got %v", err)
	}
}

func TestLookupByTitle_TypeIsAuthoritative(t *testing.T) {
	s, err := NewStore(testItems(), 0.8)
	if err != nil {
		t.Fatal(err)
	}
	// "Inception" exists only as a movie; a series lookup must not find it.
	_, err = s.LookupByTitle("Inception", models.TypeSeries)
	if !errors.Is(err, ErrTitleNotFound) {
		t.Fatalf("expected ErrTitleNotFound for cross-type lookup, got %v", err)
	}
}

func TestLookupByTitle_EmptyQuery(t *testing.T) {
	s, err := NewStore(testItems(), 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.LookupByTitle("   ", models.TypeMovie); !errors.Is(err, ErrTitleNotFound) {
		t.Fatalf("expected ErrTitleNotFound for empty query, got %v", err)
	}
}

func TestBestFuzzyMatch_TieBreaksByID(t *testing.T) {
	items := []*models.CatalogItem{
		{ID: "b", Title: "Akira X", Type: models.TypeAnime},
		{ID: "a", Title: "Akira Y", Type: models.TypeAnime},
	}
	s, err := NewStore(items, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	// Both candidates are one edit away; the lower id must win.
	it, err := s.BestFuzzyMatch("akira z", models.TypeAnime)
	if err != nil {
		t.Fatal(err)
	}
	if it.ID != "a" {
		t.Errorf("tie-break = %s, want a", it.ID)
	}
}

func TestItemsByType(t *testing.T) {
	s, err := NewStore(testItems(), 0.8)
	if err != nil {
		t.Fatal(err)
	}
	movies := s.ItemsByType(models.TypeMovie)
	if len(movies) != 3 {
		t.Fatalf("expected 3 movies, got %d", len(movies))
	}
	for _, it := range movies {
		if it.Type != models.TypeMovie {
			t.Errorf("non-movie item %s in movie list", it.ID)
		}
	}
}
