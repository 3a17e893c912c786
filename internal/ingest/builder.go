package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cinesense/cinesense/internal/catalog"
	"github.com/cinesense/cinesense/internal/cluster"
	"github.com/cinesense/cinesense/internal/embedding"
	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/pkg/utils"
)

// Options configures a catalog build.
type Options struct {
	FuzzyThreshold float64
	Clustering     cluster.Config
}

// Result bundles the artifacts of a successful build. The caller assembles
// them into a live snapshot.
type Result struct {
	Store *catalog.Store
	Index *cluster.Index

	// Embedded counts the records whose vectors were computed during this
	// build rather than carried in the dump.
	Embedded int
}

// Build validates records, fills gaps, and constructs the catalog store and
// cluster index. Any invalid record fails the whole build.
func Build(ctx context.Context, records []Record, emb embedding.Embedder, opts Options) (*Result, error) {
	if len(records) == 0 {
		return nil, &IngestionError{Source: "dump", Reason: "no records"}
	}
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = catalog.DefaultFuzzyThreshold
	}

	items := make([]*models.CatalogItem, 0, len(records))
	embedded := 0
	dims := 0
	for i := range records {
		rec := &records[i]
		it, err := itemFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if len(it.Embedding) == 0 {
			if emb == nil {
				return nil, &IngestionError{Source: "dump", Row: rec.Row, Reason: "record has no embedding and no embedder is configured"}
			}
			vec, eerr := emb.Embed(ctx, embeddingText(it))
			if eerr != nil {
				return nil, &IngestionError{Source: "dump", Row: rec.Row, Reason: "embedding failed: " + eerr.Error()}
			}
			it.Embedding = vec
			embedded++
		}
		utils.NormalizeL2(it.Embedding)
		if dims == 0 {
			dims = len(it.Embedding)
		} else if len(it.Embedding) != dims {
			return nil, &IngestionError{Source: "dump", Row: rec.Row,
				Reason: fmt.Sprintf("embedding has %d dimensions, catalog uses %d", len(it.Embedding), dims)}
		}
		items = append(items, it)
	}

	deriveFranchiseKeys(items)

	store, err := catalog.NewStore(items, opts.FuzzyThreshold)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	index, err := cluster.Build(store.Items(), opts.Clustering)
	if err != nil {
		return nil, fmt.Errorf("building cluster index: %w", err)
	}
	if err := index.Validate(store.Items()); err != nil {
		return nil, fmt.Errorf("cluster index failed validation: %w", err)
	}
	return &Result{Store: store, Index: index, Embedded: embedded}, nil
}

func itemFromRecord(rec *Record) (*models.CatalogItem, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return nil, &IngestionError{Source: "dump", Row: rec.Row, Reason: "missing title"}
	}
	ct, err := models.ParseContentType(rec.Type)
	if err != nil {
		return nil, &IngestionError{Source: "dump", Row: rec.Row, Reason: err.Error()}
	}
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return &models.CatalogItem{
		ID:           id,
		Title:        title,
		Type:         ct,
		FranchiseKey: strings.TrimSpace(rec.FranchiseKey),
		Embedding:    rec.Embedding,
		Metadata: models.Metadata{
			Overview:    rec.Overview,
			Genre:       rec.Genre,
			Rating:      rec.Rating,
			Popularity:  rec.Popularity,
			Year:        rec.Year,
			ReleaseDate: rec.ReleaseDate,
		},
	}, nil
}

// embeddingText is the document fed to the embedder when a record carries
// no precomputed vector. Title first so short records still separate.
func embeddingText(it *models.CatalogItem) string {
	parts := []string{it.Title}
	if it.Metadata.Genre != "" {
		parts = append(parts, it.Metadata.Genre)
	}
	if it.Metadata.Overview != "" {
		parts = append(parts, it.Metadata.Overview)
	}
	return strings.Join(parts, ". ")
}
