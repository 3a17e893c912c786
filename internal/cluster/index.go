package cluster

import (
	"fmt"
	"sort"

	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/internal/vector"
)

// Cluster is one disjoint partition of the catalog: a centroid plus the ids
// of its members. Members are kept in ascending id order.
type Cluster struct {
	ID       int
	Type     models.ContentType
	Centroid []float32
	Members  []string
}

// Index holds the full per-type clustering of the catalog. Immutable once
// built; concurrent reads require no locking.
type Index struct {
	clusters []*Cluster
	byItem   map[string]*Cluster
	byType   map[models.ContentType][]*Cluster
}

// Build clusters items separately per content type so that a cluster never
// mixes types and the ranker needs no cross-type exclusion pass after
// retrieval. Items must carry unit-normalized embeddings of one dimension.
func Build(items []*models.CatalogItem, cfg Config) (*Index, error) {
	idx := &Index{
		byItem: make(map[string]*Cluster, len(items)),
		byType: make(map[models.ContentType][]*Cluster),
	}
	nextID := 0
	for _, ct := range models.ContentTypes() {
		var typed []*models.CatalogItem
		for _, it := range items {
			if it.Type == ct {
				typed = append(typed, it)
			}
		}
		if len(typed) == 0 {
			continue
		}
		// Stable input order makes the whole build reproducible for a seed.
		sort.Slice(typed, func(i, j int) bool { return typed[i].ID < typed[j].ID })

		k := effectiveK(cfg.ClustersPerType, len(typed))
		vectors := make([][]float32, len(typed))
		for i, it := range typed {
			vectors[i] = it.Embedding
		}
		centroids, assignments, err := kmeans(vectors, k, cfg)
		if err != nil {
			return nil, fmt.Errorf("cluster %s items: %w", ct, err)
		}

		typeClusters := make([]*Cluster, len(centroids))
		for c := range centroids {
			typeClusters[c] = &Cluster{ID: nextID, Type: ct, Centroid: centroids[c]}
			nextID++
		}
		for i, it := range typed {
			cl := typeClusters[assignments[i]]
			cl.Members = append(cl.Members, it.ID)
			idx.byItem[it.ID] = cl
		}
		for _, cl := range typeClusters {
			idx.clusters = append(idx.clusters, cl)
			idx.byType[ct] = append(idx.byType[ct], cl)
		}
	}
	return idx, nil
}

// Restore rebuilds an Index from persisted clusters (storage layer). The
// caller guarantees members reference existing items.
func Restore(clusters []*Cluster) *Index {
	idx := &Index{
		clusters: clusters,
		byItem:   make(map[string]*Cluster),
		byType:   make(map[models.ContentType][]*Cluster),
	}
	for _, cl := range clusters {
		sort.Strings(cl.Members)
		idx.byType[cl.Type] = append(idx.byType[cl.Type], cl)
		for _, id := range cl.Members {
			idx.byItem[id] = cl
		}
	}
	sort.Slice(idx.clusters, func(i, j int) bool { return idx.clusters[i].ID < idx.clusters[j].ID })
	for _, cls := range idx.byType {
		sort.Slice(cls, func(i, j int) bool { return cls[i].ID < cls[j].ID })
	}
	return idx
}

// Clusters returns all clusters in ascending id order.
func (x *Index) Clusters() []*Cluster { return x.clusters }

// FindCluster returns the cluster an item belongs to. Membership is
// precomputed at build time; this never re-clusters.
func (x *Index) FindCluster(itemID string) (*Cluster, bool) {
	cl, ok := x.byItem[itemID]
	return cl, ok
}

// ClustersForType returns the clusters of one content type in id order.
func (x *Index) ClustersForType(ct models.ContentType) []*Cluster {
	return x.byType[ct]
}

// NearestClusters returns up to n clusters of ref's type ordered by
// descending centroid similarity to ref, excluding ref itself. Ties resolve
// to the lower cluster id.
func (x *Index) NearestClusters(ref *Cluster, n int) []*Cluster {
	peers := make([]*Cluster, 0, len(x.byType[ref.Type]))
	for _, cl := range x.byType[ref.Type] {
		if cl != ref {
			peers = append(peers, cl)
		}
	}
	sort.SliceStable(peers, func(i, j int) bool {
		si := vector.InnerProduct(ref.Centroid, peers[i].Centroid)
		sj := vector.InnerProduct(ref.Centroid, peers[j].Centroid)
		if si != sj {
			return si > sj
		}
		return peers[i].ID < peers[j].ID
	})
	if n < len(peers) {
		peers = peers[:n]
	}
	return peers
}

// Validate checks the hard-partition invariant: every item belongs to exactly
// one cluster and the union of members equals the catalog.
func (x *Index) Validate(items []*models.CatalogItem) error {
	seen := make(map[string]int)
	for _, cl := range x.clusters {
		for _, id := range cl.Members {
			seen[id]++
		}
	}
	for _, it := range items {
		switch seen[it.ID] {
		case 1:
		case 0:
			return fmt.Errorf("item %s missing from all clusters", it.ID)
		default:
			return fmt.Errorf("item %s assigned to %d clusters", it.ID, seen[it.ID])
		}
	}
	if len(seen) != len(items) {
		return fmt.Errorf("cluster members (%d) do not match catalog size (%d)", len(seen), len(items))
	}
	return nil
}
