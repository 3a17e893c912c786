// Package catalog provides the read-only catalog store and title lookup.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/pkg/utils"
)

// ErrTitleNotFound is returned when no catalog item of the requested type
// matches the query title above the fuzzy threshold.
var ErrTitleNotFound = errors.New("title not found in catalog")

// DefaultFuzzyThreshold is the minimum normalized title similarity accepted
// by the fuzzy fallback. Below it, lookup reports not-found rather than
// guessing: a wrong silent match degrades recommendations with no visible error.
const DefaultFuzzyThreshold = 0.8

// Store holds the full catalog, immutable after construction. It is built
// once per ingestion cycle and shared read-only across requests.
type Store struct {
	items     []*models.CatalogItem
	byID      map[string]*models.CatalogItem
	byTitle   map[models.ContentType]map[string]*models.CatalogItem
	threshold float64
}

// NewStore builds a store from items. Items are kept in ascending id order
// so that iteration and tie-breaking are deterministic. Duplicate ids and
// exact duplicate (title, type) pairs are rejected.
func NewStore(items []*models.CatalogItem, fuzzyThreshold float64) (*Store, error) {
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	sorted := make([]*models.CatalogItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	s := &Store{
		items:     sorted,
		byID:      make(map[string]*models.CatalogItem, len(sorted)),
		byTitle:   make(map[models.ContentType]map[string]*models.CatalogItem),
		threshold: fuzzyThreshold,
	}
	for _, it := range sorted {
		if _, dup := s.byID[it.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", it.ID)
		}
		s.byID[it.ID] = it
		tm := s.byTitle[it.Type]
		if tm == nil {
			tm = make(map[string]*models.CatalogItem)
			s.byTitle[it.Type] = tm
		}
		key := utils.NormalizeTitle(it.Title)
		if _, dup := tm[key]; dup {
			return nil, fmt.Errorf("duplicate title %q for type %s", it.Title, it.Type)
		}
		tm[key] = it
	}
	return s, nil
}

// Len returns the number of items in the catalog.
func (s *Store) Len() int { return len(s.items) }

// Items returns all items in ascending id order. Callers must not mutate.
func (s *Store) Items() []*models.CatalogItem { return s.items }

// ItemsByType returns all items of the given type in ascending id order.
func (s *Store) ItemsByType(ct models.ContentType) []*models.CatalogItem {
	out := make([]*models.CatalogItem, 0)
	for _, it := range s.items {
		if it.Type == ct {
			out = append(out, it)
		}
	}
	return out
}

// GetByID returns the item with the given id, or false.
func (s *Store) GetByID(id string) (*models.CatalogItem, bool) {
	it, ok := s.byID[id]
	return it, ok
}

// FuzzyThreshold returns the similarity threshold used by LookupByTitle.
func (s *Store) FuzzyThreshold() float64 { return s.threshold }

// LookupByTitle resolves a free-text title to a catalog item of the given
// type. Exact match (case-insensitive, whitespace-normalized) wins; otherwise
// the best fuzzy match at or above the threshold is returned, ties broken by
// ascending id. Below the threshold the lookup fails with ErrTitleNotFound.
func (s *Store) LookupByTitle(title string, ct models.ContentType) (*models.CatalogItem, error) {
	key := utils.NormalizeTitle(title)
	if key == "" {
		return nil, ErrTitleNotFound
	}
	if it, ok := s.byTitle[ct][key]; ok {
		return it, nil
	}
	return s.BestFuzzyMatch(key, ct)
}

// LookupExact returns the item whose normalized title equals the normalized
// query, or false. No fuzzy fallback.
func (s *Store) LookupExact(title string, ct models.ContentType) (*models.CatalogItem, bool) {
	it, ok := s.byTitle[ct][utils.NormalizeTitle(title)]
	return it, ok
}

// BestFuzzyMatch scans all titles of the given type and returns the item with
// the highest normalized similarity to the (already normalized) query, if it
// clears the threshold. Deterministic: on equal similarity the lower id wins.
func (s *Store) BestFuzzyMatch(normalizedQuery string, ct models.ContentType) (*models.CatalogItem, error) {
	var best *models.CatalogItem
	bestScore := 0.0
	for _, it := range s.items {
		if it.Type != ct {
			continue
		}
		score := TitleSimilarity(normalizedQuery, utils.NormalizeTitle(it.Title))
		if score > bestScore {
			best, bestScore = it, score
		}
	}
	if best == nil || bestScore < s.threshold {
		return nil, ErrTitleNotFound
	}
	return best, nil
}
