package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cinesense/cinesense/internal/cluster"
	"github.com/cinesense/cinesense/internal/embedding"
)

func testRecords(n int) []Record {
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, Record{
			ID:    fmt.Sprintf("m%03d", i),
			Title: fmt.Sprintf("Feature Film %d", i),
			Type:  "movie",
			Row:   i + 1,
		})
	}
	return records
}

func TestBuild_EmbedsMissingVectors(t *testing.T) {
	emb := embedding.NewMockEmbedder(16)
	res, err := Build(context.Background(), testRecords(30), emb, Options{Clustering: cluster.DefaultConfig()})
	if err != nil {
		t.Fatal(err)
	}
	if res.Embedded != 30 {
		t.Errorf("Embedded = %d, want 30", res.Embedded)
	}
	if res.Store.Len() != 30 {
		t.Errorf("store has %d items, want 30", res.Store.Len())
	}
	for _, it := range res.Store.Items() {
		if len(it.Embedding) != 16 {
			t.Fatalf("item %s has %d dims", it.ID, len(it.Embedding))
		}
	}
}

func TestBuild_DimensionMismatch(t *testing.T) {
	records := []Record{
		{ID: "a", Title: "First", Type: "movie", Embedding: []float32{1, 0}, Row: 1},
		{ID: "b", Title: "Second", Type: "movie", Embedding: []float32{1, 0, 0}, Row: 2},
	}
	_, err := Build(context.Background(), records, nil, Options{Clustering: cluster.DefaultConfig()})
	var ierr *IngestionError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
	if ierr.Row != 2 {
		t.Errorf("error row = %d, want 2", ierr.Row)
	}
}

func TestBuild_MissingTitleFailsWholeBuild(t *testing.T) {
	records := testRecords(5)
	records[3].Title = "  "
	_, err := Build(context.Background(), records, embedding.NewMockEmbedder(8), Options{Clustering: cluster.DefaultConfig()})
	var ierr *IngestionError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
}

func TestBuild_UnknownType(t *testing.T) {
	records := testRecords(3)
	records[1].Type = "podcast"
	_, err := Build(context.Background(), records, embedding.NewMockEmbedder(8), Options{Clustering: cluster.DefaultConfig()})
	var ierr *IngestionError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
}

func TestBuild_AssignsIDsWhenMissing(t *testing.T) {
	records := testRecords(4)
	records[2].ID = ""
	res, err := Build(context.Background(), records, embedding.NewMockEmbedder(8), Options{Clustering: cluster.DefaultConfig()})
	if err != nil {
		t.Fatal(err)
	}
	if res.Store.Len() != 4 {
		t.Fatalf("store has %d items, want 4", res.Store.Len())
	}
	for _, it := range res.Store.Items() {
		if it.ID == "" {
			t.Fatal("item left without id")
		}
	}
}

func TestBuild_NoEmbedderAndNoVector(t *testing.T) {
	_, err := Build(context.Background(), testRecords(2), nil, Options{Clustering: cluster.DefaultConfig()})
	var ierr *IngestionError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
}

func TestBuild_EmptyDump(t *testing.T) {
	if _, err := Build(context.Background(), nil, nil, Options{}); err == nil {
		t.Fatal("expected error for empty dump")
	}
}

func TestBuild_DerivesFranchiseKeys(t *testing.T) {
	records := []Record{
		{ID: "1", Title: "Alien: Covenant", Type: "movie", Row: 1},
		{ID: "2", Title: "Alien: Resurrection", Type: "movie", Row: 2},
		{ID: "3", Title: "Arrival", Type: "movie", Row: 3},
	}
	res, err := Build(context.Background(), records, embedding.NewMockEmbedder(8), Options{Clustering: cluster.DefaultConfig()})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := res.Store.GetByID("1")
	b, _ := res.Store.GetByID("2")
	c, _ := res.Store.GetByID("3")
	if a.FranchiseKey == "" || a.FranchiseKey != b.FranchiseKey {
		t.Errorf("franchise keys %q / %q", a.FranchiseKey, b.FranchiseKey)
	}
	if c.FranchiseKey != "" {
		t.Errorf("singleton got key %q", c.FranchiseKey)
	}
}
