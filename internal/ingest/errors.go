// Package ingest loads catalog dumps, derives franchise keys, fills in
// missing embeddings, and builds the in-memory catalog and cluster index.
package ingest

import "fmt"

// IngestionError reports a fatal problem with a dump record. Ingestion is
// all-or-nothing: the first invalid record aborts the whole build and the
// previous catalog stays live.
type IngestionError struct {
	Source string
	Row    int
	Reason string
}

func (e *IngestionError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("ingest %s row %d: %s", e.Source, e.Row, e.Reason)
	}
	return fmt.Sprintf("ingest %s: %s", e.Source, e.Reason)
}
