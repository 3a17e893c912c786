// Package resolver maps free-text query titles to catalog items.
package resolver

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/cinesense/cinesense/internal/catalog"
	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/pkg/utils"
)

// maxCandidates bounds how many fuzzy candidates bleve returns before
// levenshtein confirmation.
const maxCandidates = 10

// titleDoc is the shape indexed per catalog item.
type titleDoc struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Resolver resolves request titles against one catalog snapshot. It is built
// alongside the snapshot and immutable afterwards. The in-memory bleve index
// generates typo-tolerant candidates; the catalog's threshold-based fuzzy
// scan remains the authority for which match is best.
type Resolver struct {
	store *catalog.Store
	index bleve.Index
}

// New builds a resolver over the store, indexing every title in memory.
func New(store *catalog.Store) (*Resolver, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", titleField)
	typeField := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("type", typeField)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create title index: %w", err)
	}
	batch := index.NewBatch()
	for _, it := range store.Items() {
		if err := batch.Index(it.ID, titleDoc{Title: it.Title, Type: string(it.Type)}); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to index title %q: %w", it.Title, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to commit title index: %w", err)
	}
	return &Resolver{store: store, index: index}, nil
}

// Resolve maps a validated request to its anchor catalog item. Exact match
// first, then the best fuzzy match at or above the threshold. Fails with
// catalog.ErrTitleNotFound when nothing clears it.
func (r *Resolver) Resolve(req *models.RecommendRequest) (*models.CatalogItem, error) {
	normalized := utils.NormalizeTitle(req.Title)
	if normalized == "" {
		return nil, catalog.ErrTitleNotFound
	}
	if it, ok := r.store.LookupExact(req.Title, req.ContentType); ok {
		return it, nil
	}
	// The index only generates candidates. Unless one matches the normalized
	// query outright, the full catalog scan decides which title is actually
	// closest: bleve sees at most two edits per token, and its nearest hit
	// may not be the catalog's nearest title.
	candidate, score := r.fuzzyCandidate(normalized, req.ContentType)
	if candidate != nil && score == 1.0 {
		return candidate, nil
	}
	best, err := r.store.BestFuzzyMatch(normalized, req.ContentType)
	if err != nil {
		return nil, err
	}
	if candidate != nil && score > catalog.TitleSimilarity(normalized, utils.NormalizeTitle(best.Title)) {
		return candidate, nil
	}
	return best, nil
}

// fuzzyCandidate asks bleve for typo-tolerant candidates of the right type
// and returns the best one clearing the store's threshold with its
// similarity, ties broken by id. Returns nil when nothing clears it.
func (r *Resolver) fuzzyCandidate(normalized string, ct models.ContentType) (*models.CatalogItem, float64) {
	match := bleve.NewMatchQuery(normalized)
	match.SetField("title")
	match.SetFuzziness(2)
	typeTerm := bleve.NewTermQuery(string(ct))
	typeTerm.SetField("type")
	conj := bleve.NewConjunctionQuery(match, typeTerm)

	searchReq := bleve.NewSearchRequestOptions(conj, maxCandidates, 0, false)
	res, err := r.index.Search(searchReq)
	if err != nil {
		return nil, 0
	}

	var best *models.CatalogItem
	bestScore := 0.0
	for _, hit := range res.Hits {
		it, ok := r.store.GetByID(hit.ID)
		if !ok || it.Type != ct {
			continue
		}
		score := catalog.TitleSimilarity(normalized, utils.NormalizeTitle(it.Title))
		if score > bestScore || (score == bestScore && best != nil && it.ID < best.ID) {
			best, bestScore = it, score
		}
	}
	if best == nil || bestScore < r.store.FuzzyThreshold() {
		return nil, 0
	}
	return best, bestScore
}

// Close releases the in-memory index.
func (r *Resolver) Close() error {
	if r.index != nil {
		return r.index.Close()
	}
	return nil
}
