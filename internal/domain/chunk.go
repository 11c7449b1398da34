package domain

// SourceFuzzyFallback marks a result produced by the fuzzy text fallback
// rather than semantic search, so downstream consumers can tell them apart.
const SourceFuzzyFallback = "fuzzy_fallback"

// Chunk is the unit of retrievable document text.
type Chunk struct {
	// Text is the chunk content, trimmed and longer than the configured
	// minimum after filtering.
	Text string
	// Source identifies the originating document (filename), or
	// SourceFuzzyFallback for synthetic fallback results.
	Source string
	// Ordinal is the zero-based position among chunks of the same document.
	// Metadata only; it never orders search results except as a tie-break.
	Ordinal int
}

// ScoredChunk pairs a chunk with its distance from a query.
// Distance is 1 - cosine similarity: 0 means identical, larger means
// less similar.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

// WebResult is one entry returned by the web-search collaborator.
type WebResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Answer is the outcome of asking a question against a session.
type Answer struct {
	Text       string
	IsRelevant bool
	Matched    []ScoredChunk
	Trace      []string
}
