package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/petal-labs/ira/internal/domain"
)

// Memory is the canonical index strategy: parallel chunk and embedding
// slices scanned brute-force per query. O(n*d) per search is fine because
// n is bounded by one document's chunk count.
type Memory struct {
	embedder Embedder

	mu         sync.RWMutex
	chunks     []domain.Chunk
	embeddings [][]float32
}

func NewMemory(embedder Embedder) *Memory {
	return &Memory{embedder: embedder}
}

// Build embeds all chunks in one batch and swaps the store contents.
// On embedding failure the previous contents are left untouched.
func (m *Memory) Build(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		m.mu.Lock()
		m.chunks = nil
		m.embeddings = nil
		m.mu.Unlock()
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return domain.NewEmbeddingServiceError(err)
	}
	if len(embeddings) != len(chunks) {
		return domain.NewEmbeddingServiceError(
			fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks)))
	}

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)

	m.mu.Lock()
	m.chunks = stored
	m.embeddings = embeddings
	m.mu.Unlock()
	return nil
}

// Search embeds the query and scans every stored embedding, returning the
// k nearest chunks ordered by ascending distance with ties broken by
// smaller ordinal.
func (m *Memory) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	m.mu.RLock()
	chunks := m.chunks
	embeddings := m.embeddings
	m.mu.RUnlock()

	if len(chunks) == 0 || k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	queryVec, err := m.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, domain.NewEmbeddingServiceError(err)
	}

	scored := make([]domain.ScoredChunk, len(chunks))
	for i := range chunks {
		scored[i] = domain.ScoredChunk{
			Chunk:    chunks[i],
			Distance: Distance(queryVec, embeddings[i]),
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].Chunk.Ordinal < scored[j].Chunk.Ordinal
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Chunks returns a copy of the resident chunk corpus.
func (m *Memory) Chunks(ctx context.Context) ([]domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Chunk, len(m.chunks))
	copy(out, m.chunks)
	return out, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}
