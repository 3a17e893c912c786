package ingest

import (
	"testing"

	"github.com/cinesense/cinesense/internal/models"
)

func TestBaseTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Batman Begins", "batman begins"},
		{"Batman: The Animated Series", "batman"},
		{"Mission: Impossible - Fallout", "mission"},
		{"Spider-Man", "spider"},
		{"Avatar (2009)", "avatar"},
		{"Blade Runner – The Final Cut", "blade runner"},
		{"  The   Matrix  ", "the matrix"},
		{": leading separator", ""},
	}
	for _, c := range cases {
		if got := BaseTitle(c.in); got != c.want {
			t.Errorf("BaseTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDeriveFranchiseKeys(t *testing.T) {
	items := []*models.CatalogItem{
		{ID: "1", Title: "Batman: Year One", Type: models.TypeMovie},
		{ID: "2", Title: "Batman: The Dark Knight Returns", Type: models.TypeMovie},
		{ID: "3", Title: "Inception", Type: models.TypeMovie},
		{ID: "4", Title: "Batman: The Animated Series", Type: models.TypeSeries},
	}
	deriveFranchiseKeys(items)

	if items[0].FranchiseKey == "" || items[0].FranchiseKey != items[1].FranchiseKey {
		t.Errorf("expected matching franchise keys, got %q and %q", items[0].FranchiseKey, items[1].FranchiseKey)
	}
	if items[2].FranchiseKey != "" {
		t.Errorf("singleton got franchise key %q", items[2].FranchiseKey)
	}
	// Same base title but different type never shares a franchise.
	if items[3].FranchiseKey != "" {
		t.Errorf("cross-type item got franchise key %q", items[3].FranchiseKey)
	}
}

func TestDeriveFranchiseKeys_PresetKeysKept(t *testing.T) {
	items := []*models.CatalogItem{
		{ID: "1", Title: "Batman Begins", Type: models.TypeMovie, FranchiseKey: "dark_knight"},
		{ID: "2", Title: "The Dark Knight Rises", Type: models.TypeMovie, FranchiseKey: "dark_knight"},
		{ID: "3", Title: "Alien: Covenant", Type: models.TypeMovie},
		{ID: "4", Title: "Alien: Resurrection", Type: models.TypeMovie},
	}
	deriveFranchiseKeys(items)
	if items[0].FranchiseKey != "dark_knight" || items[1].FranchiseKey != "dark_knight" {
		t.Errorf("preset keys overwritten: %q %q", items[0].FranchiseKey, items[1].FranchiseKey)
	}
	if items[2].FranchiseKey != "movie:alien" {
		t.Errorf("derivation skipped for keyless items: %q", items[2].FranchiseKey)
	}
}

func TestDeriveFranchiseKeys_SameBaseDifferentSubtitles(t *testing.T) {
	items := []*models.CatalogItem{
		{ID: "1", Title: "Alien", Type: models.TypeMovie},
		{ID: "2", Title: "Alien: Covenant", Type: models.TypeMovie},
		{ID: "3", Title: "Alien - Resurrection", Type: models.TypeMovie},
	}
	deriveFranchiseKeys(items)
	for _, it := range items {
		if it.FranchiseKey != "movie:alien" {
			t.Errorf("item %s: key %q, want movie:alien", it.ID, it.FranchiseKey)
		}
	}
}
