package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/cinesense/cinesense/internal/cluster"
	"github.com/cinesense/cinesense/internal/embedding"
	"github.com/cinesense/cinesense/internal/ingest"
	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/internal/recommend"
	"github.com/cinesense/cinesense/internal/vector"
)

func benchmarkRecords(n int) []ingest.Record {
	records := make([]ingest.Record, 0, n)
	types := []string{"movie", "series", "anime"}
	for i := 0; i < n; i++ {
		records = append(records, ingest.Record{
			ID:    fmt.Sprintf("item-%05d", i),
			Title: fmt.Sprintf("Feature Number %d", i),
			Type:  types[i%len(types)],
			Row:   i + 1,
		})
	}
	return records
}

func benchmarkEngine(b *testing.B, n int) *recommend.Engine {
	b.Helper()
	result, err := ingest.Build(context.Background(), benchmarkRecords(n),
		embedding.NewMockEmbedder(64), ingest.Options{Clustering: cluster.DefaultConfig()})
	if err != nil {
		b.Fatal(err)
	}
	snap, err := recommend.NewSnapshot(result.Store, result.Index, nil)
	if err != nil {
		b.Fatal(err)
	}
	engine := recommend.NewEngine(0, 50, nil)
	engine.Publish(snap)
	return engine
}

func BenchmarkRecommend(b *testing.B) {
	engine := benchmarkEngine(b, 3000)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := engine.Recommend(ctx, &models.RecommendRequest{
			Title: "Feature Number 1200", Type: "movie", TopN: 10,
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecommend_FuzzyTitle(b *testing.B) {
	engine := benchmarkEngine(b, 3000)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := engine.Recommend(ctx, &models.RecommendRequest{
			Title: "Faeture Number 1200", Type: "movie", TopN: 10,
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCosineSimilarity(b *testing.B) {
	e := embedding.NewMockEmbedder(384)
	x, _ := e.Embed(context.Background(), "first benchmark vector")
	y, _ := e.Embed(context.Background(), "second benchmark vector")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = vector.CosineSimilarity(x, y)
	}
}

func BenchmarkClusterBuild(b *testing.B) {
	result, err := ingest.Build(context.Background(), benchmarkRecords(1000),
		embedding.NewMockEmbedder(64), ingest.Options{Clustering: cluster.DefaultConfig()})
	if err != nil {
		b.Fatal(err)
	}
	items := result.Store.Items()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cluster.Build(items, cluster.DefaultConfig()); err != nil {
			b.Fatal(err)
		}
	}
}
