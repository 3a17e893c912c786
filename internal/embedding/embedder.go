// Package embedding provides the text embedding boundary. The model itself is
// a black box: catalog dumps normally carry precomputed vectors, and an
// Embedder is only consulted at ingestion for rows that arrive without one.
package embedding

import "context"

// Embedder produces fixed-length vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
