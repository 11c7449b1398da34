package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/petal-labs/ira/internal/domain"
)

// PGVector is the alternative index strategy: chunks and embeddings live
// in a Postgres table with a pgvector column, scoped by session ID so one
// database can back many sessions. Build/Search semantics match Memory.
type PGVector struct {
	pool      *pgxpool.Pool
	embedder  Embedder
	sessionID string
}

func NewPGVector(pool *pgxpool.Pool, embedder Embedder, sessionID string) *PGVector {
	return &PGVector{pool: pool, embedder: embedder, sessionID: sessionID}
}

// Build embeds all chunks first, then replaces the session's rows in a
// single transaction. Embedding or insert failures roll back and leave
// the prior content in place.
func (p *PGVector) Build(ctx context.Context, chunks []domain.Chunk) error {
	var embeddings [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		var err error
		embeddings, err = p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return domain.NewEmbeddingServiceError(err)
		}
		if len(embeddings) != len(chunks) {
			return domain.NewEmbeddingServiceError(
				fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks)))
		}
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM document_chunks WHERE session_id = $1`, p.sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear session chunks: %w", err)
	}

	for i, c := range chunks {
		_, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (session_id, source, ordinal, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			p.sessionID, c.Source, c.Ordinal, c.Text, pgvector.NewVector(embeddings[i]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.Ordinal, err)
		}
	}

	return tx.Commit(ctx)
}

// Search uses the pgvector cosine-distance operator with the same
// ordering contract as the in-memory scan.
func (p *PGVector) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || p.Len() == 0 {
		return []domain.ScoredChunk{}, nil
	}

	queryVec, err := p.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, domain.NewEmbeddingServiceError(err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT source, ordinal, content, embedding <=> $1 AS distance
		 FROM document_chunks
		 WHERE session_id = $2
		 ORDER BY distance ASC, ordinal ASC
		 LIMIT $3`,
		pgvector.NewVector(queryVec), p.sessionID, k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	results := make([]domain.ScoredChunk, 0, k)
	for rows.Next() {
		var sc domain.ScoredChunk
		if err := rows.Scan(&sc.Chunk.Source, &sc.Chunk.Ordinal, &sc.Chunk.Text, &sc.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		results = append(results, sc)
	}
	return results, rows.Err()
}

// Chunks returns the session's full corpus in ordinal order.
func (p *PGVector) Chunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT source, ordinal, content FROM document_chunks
		 WHERE session_id = $1 ORDER BY ordinal ASC`,
		p.sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.Source, &c.Ordinal, &c.Text); err != nil {
			return nil, fmt.Errorf("failed to scan corpus row: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (p *PGVector) Len() int {
	var count int
	err := p.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM document_chunks WHERE session_id = $1`, p.sessionID,
	).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}
