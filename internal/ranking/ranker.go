// Package ranking computes nearest-neighbor recommendations for an anchor item.
package ranking

import (
	"sort"

	"github.com/cinesense/cinesense/internal/catalog"
	"github.com/cinesense/cinesense/internal/cluster"
	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/internal/vector"
)

// Scored pairs a catalog item with its boosted similarity to the anchor.
type Scored struct {
	Item  *models.CatalogItem
	Score float64
}

// Ranker ranks candidates against an anchor item using the shared read-only
// catalog and cluster index. It holds no mutable state; one Ranker can serve
// concurrent requests.
type Ranker struct {
	config   *Config
	catalog  *catalog.Store
	clusters *cluster.Index
}

// NewRanker creates a ranker over a catalog snapshot.
func NewRanker(cfg *Config, store *catalog.Store, clusters *cluster.Index) *Ranker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyDefaults()
	return &Ranker{config: cfg, catalog: store, clusters: clusters}
}

// Rank returns up to topN candidates for the anchor: same type only, boosted
// cosine similarity descending, ties broken by ascending id. An anchor with
// no eligible candidates yields an empty slice, not an error.
func (r *Ranker) Rank(anchor *models.CatalogItem, topN int, mode models.SortMode) []Scored {
	if topN <= 0 {
		topN = models.DefaultTopN
	}
	pool := r.candidatePool(anchor, topN)

	scored := make([]Scored, 0, len(pool))
	for _, it := range pool {
		if it.ID == anchor.ID {
			continue
		}
		// Per-type clustering already guarantees this, but the type filter
		// is a hard contract, so enforce it here too.
		if it.Type != anchor.Type {
			continue
		}
		scored = append(scored, Scored{Item: it, Score: r.score(anchor, it)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}
	applySortMode(scored, mode)
	return scored
}

// score is base cosine similarity plus the franchise boost when the candidate
// shares the anchor's non-empty franchise key, capped at 1.0.
func (r *Ranker) score(anchor, candidate *models.CatalogItem) float64 {
	s := vector.CosineSimilarity(anchor.Embedding, candidate.Embedding)
	if anchor.FranchiseKey != "" && anchor.FranchiseKey == candidate.FranchiseKey {
		s += r.config.FranchiseBoost
		if s > 1.0 {
			s = 1.0
		}
	}
	return s
}

// candidatePool starts with the anchor's cluster and widens to the nearest
// clusters (by centroid similarity) until at least topN non-anchor candidates
// exist or the type's clusters are exhausted. The catalog is never
// full-scanned beyond the anchor's own type.
func (r *Ranker) candidatePool(anchor *models.CatalogItem, topN int) []*models.CatalogItem {
	home, ok := r.clusters.FindCluster(anchor.ID)
	if !ok {
		// Anchor missing from the index means a stale lookup; fall back to
		// the anchor's type partition so the request still succeeds.
		return r.catalog.ItemsByType(anchor.Type)
	}

	ids := make([]string, 0, len(home.Members))
	ids = append(ids, home.Members...)
	if len(ids)-1 < topN {
		for _, cl := range r.clusters.NearestClusters(home, len(r.clusters.ClustersForType(anchor.Type))) {
			ids = append(ids, cl.Members...)
			if len(ids)-1 >= topN {
				break
			}
		}
	}

	pool := make([]*models.CatalogItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := r.catalog.GetByID(id); ok {
			pool = append(pool, it)
		}
	}
	return pool
}

// applySortMode reorders the already-selected candidates by a metadata field.
// Relevance (the default) keeps the similarity ordering. Ties always fall
// back to ascending id so results stay deterministic.
func applySortMode(scored []Scored, mode models.SortMode) {
	var less func(a, b Scored) bool
	switch mode {
	case models.SortLatest:
		less = func(a, b Scored) bool { return a.Item.Metadata.Year > b.Item.Metadata.Year }
	case models.SortOldest:
		less = func(a, b Scored) bool { return a.Item.Metadata.Year < b.Item.Metadata.Year }
	case models.SortPopular:
		less = func(a, b Scored) bool { return a.Item.Metadata.Popularity > b.Item.Metadata.Popularity }
	case models.SortTopRated:
		less = func(a, b Scored) bool { return a.Item.Metadata.Rating > b.Item.Metadata.Rating }
	default:
		return
	}
	sort.Slice(scored, func(i, j int) bool {
		if less(scored[i], scored[j]) {
			return true
		}
		if less(scored[j], scored[i]) {
			return false
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})
}
