// Package recommend serves ranked recommendations from an immutable catalog
// snapshot. Rebuilds publish a new snapshot atomically; in-flight requests
// keep reading the one they started with.
package recommend

import (
	"time"

	"github.com/cinesense/cinesense/internal/catalog"
	"github.com/cinesense/cinesense/internal/cluster"
	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/internal/ranking"
	"github.com/cinesense/cinesense/internal/resolver"
)

// Snapshot is one fully built, internally consistent view of the catalog:
// store, cluster index, title resolver, and the ranker bound to them. It is
// never mutated after construction.
type Snapshot struct {
	Store    *catalog.Store
	Index    *cluster.Index
	Resolver *resolver.Resolver
	Ranker   *ranking.Ranker
	BuiltAt  time.Time
}

// NewSnapshot binds a built store and index into a servable snapshot.
func NewSnapshot(store *catalog.Store, index *cluster.Index, rankCfg *ranking.Config) (*Snapshot, error) {
	res, err := resolver.New(store)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Store:    store,
		Index:    index,
		Resolver: res,
		Ranker:   ranking.NewRanker(rankCfg, store, index),
		BuiltAt:  time.Now(),
	}, nil
}

// Stats summarizes a snapshot for the status endpoint.
type Stats struct {
	Items    int                        `json:"items"`
	ByType   map[models.ContentType]int `json:"by_type"`
	Clusters int                        `json:"clusters"`
	BuiltAt  time.Time                  `json:"built_at"`
}

// Stats counts the snapshot's contents.
func (s *Snapshot) Stats() Stats {
	byType := make(map[models.ContentType]int, 3)
	for _, ct := range models.ContentTypes() {
		if n := len(s.Store.ItemsByType(ct)); n > 0 {
			byType[ct] = n
		}
	}
	return Stats{
		Items:    s.Store.Len(),
		ByType:   byType,
		Clusters: len(s.Index.Clusters()),
		BuiltAt:  s.BuiltAt,
	}
}
