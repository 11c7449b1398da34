package service

import (
	"context"
	"fmt"
	"log"

	"github.com/petal-labs/ira/internal/domain"
	"github.com/petal-labs/ira/internal/index"
)

// RouterConfig tunes relevance routing. Threshold is a cosine distance:
// smaller means more similar, and a chunk counts as relevant only when
// its distance falls strictly below the threshold.
type RouterConfig struct {
	Threshold float64
	TopK      int
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{Threshold: 0.5, TopK: 3}
}

// RouteResult carries the retrieved context plus the routing decision.
// Trace records each routing step for response debugging.
type RouteResult struct {
	Results    []domain.ScoredChunk
	IsRelevant bool
	Trace      []string
}

// Router retrieves document context for a query and decides whether the
// query is answerable from the indexed document at all. Retrieval and
// the relevance decision are separate passes: the k-sized result set may
// be replaced by a fuzzy fallback, while the relevance gate always looks
// at the single best vector match.
type Router struct {
	idx index.Index
	cfg RouterConfig
}

func NewRouter(idx index.Index, cfg RouterConfig) *Router {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.5
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Router{idx: idx, cfg: cfg}
}

// Route never fails: retrieval errors degrade to an empty result set and
// an irrelevant verdict, with the cause logged and traced.
func (r *Router) Route(ctx context.Context, query string, k int) RouteResult {
	if k <= 0 {
		k = r.cfg.TopK
	}

	res := RouteResult{Results: []domain.ScoredChunk{}}
	if r.idx == nil || r.idx.Len() == 0 {
		res.Trace = append(res.Trace, "no document indexed")
		return res
	}

	results, err := r.idx.Search(ctx, query, k)
	if err != nil {
		log.Printf("vector search failed for query %q: %v", preview(query), err)
		res.Trace = append(res.Trace, "vector search failed, degrading to empty results")
		results = nil
	} else {
		res.Trace = append(res.Trace, fmt.Sprintf("vector search returned %d results", len(results)))
	}

	if len(results) == 0 || r.allBeyondThreshold(results) {
		results = r.fuzzyFallback(ctx, query, results, &res.Trace)
	}
	if results != nil {
		res.Results = results
	}

	// Second pass: the relevance gate. Deliberately independent of the
	// result set above, which may have been swapped for a fuzzy match.
	top, err := r.idx.Search(ctx, query, 1)
	switch {
	case err != nil:
		log.Printf("relevance check failed for query %q: %v", preview(query), err)
		res.Trace = append(res.Trace, "relevance check failed, treating query as off-document")
	case len(top) == 0:
		res.Trace = append(res.Trace, "relevance check found no matches")
	default:
		res.IsRelevant = top[0].Distance < r.cfg.Threshold
		res.Trace = append(res.Trace, fmt.Sprintf(
			"best match distance %.4f vs threshold %.2f: relevant=%t",
			top[0].Distance, r.cfg.Threshold, res.IsRelevant))
	}

	return res
}

func (r *Router) allBeyondThreshold(results []domain.ScoredChunk) bool {
	for _, sc := range results {
		if sc.Distance < r.cfg.Threshold {
			return false
		}
	}
	return true
}

// fuzzyFallback swaps a weak vector result set for the single best
// edit-distance match over the whole corpus. When the corpus cannot be
// read or nothing matches, the original results are kept.
func (r *Router) fuzzyFallback(ctx context.Context, query string, results []domain.ScoredChunk, trace *[]string) []domain.ScoredChunk {
	corpus, err := r.idx.Chunks(ctx)
	if err != nil {
		log.Printf("fuzzy fallback could not read corpus: %v", err)
		*trace = append(*trace, "fuzzy fallback unavailable")
		return results
	}

	text, score := FuzzyMatch(query, corpus)
	if text == "" {
		*trace = append(*trace, "fuzzy fallback found no match")
		return results
	}

	*trace = append(*trace, fmt.Sprintf("weak vector signal, fuzzy fallback matched with score %.2f", score))
	return []domain.ScoredChunk{{
		Chunk: domain.Chunk{
			Text:   text,
			Source: domain.SourceFuzzyFallback,
		},
		Distance: 1 - score,
	}}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > 50 {
		return string(r[:50]) + "..."
	}
	return s
}
