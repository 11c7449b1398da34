// Package index holds the searchable chunk store for a single resident
// document. Two strategies implement the same contract: an in-memory
// brute-force cosine scan and a pgvector-backed store.
package index

import (
	"context"

	"github.com/petal-labs/ira/internal/domain"
)

// Embedder maps text to fixed-dimension vectors. Implementations must be
// deterministic enough for repeated queries to be comparable within a
// session.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Index stores the chunks and embeddings of the current document and
// answers nearest-neighbor queries over them.
//
// Build replaces any prior content atomically from the caller's
// perspective: it either fully replaces the store or leaves the previous
// content intact on failure. Search returns at most k results ordered by
// ascending distance, ties broken by smaller ordinal, and an empty slice
// (not an error) when the store is empty.
type Index interface {
	Build(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
	Chunks(ctx context.Context) ([]domain.Chunk, error)
	Len() int
}
