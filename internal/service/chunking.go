package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/petal-labs/ira/internal/domain"
)

// ChunkConfig controls how extracted document text is split for embedding.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
	MinChars int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 1000,
		Overlap:  200,
		MinChars: 50,
	}
}

// Splitter cuts document text into overlapping, size-bounded chunks,
// preferring cuts at paragraph, then sentence, then word boundaries so
// semantic units stay intact where possible. Every chunk is at most
// MaxChars runes; a unit with no boundary in the window is hard-cut, so
// the bound always holds.
type Splitter struct {
	cfg ChunkConfig
}

func NewSplitter(cfg ChunkConfig) *Splitter {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.MaxChars {
		cfg.Overlap = cfg.MaxChars / 5
	}
	return &Splitter{cfg: cfg}
}

// Split is a pure function of its inputs. It returns ErrEmptyDocument for
// empty or all-whitespace text, and ErrNoMeaningfulContent when filtering
// leaves no chunk longer than MinChars.
func (s *Splitter) Split(text, source string) ([]domain.Chunk, error) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil, domain.ErrEmptyDocument
	}

	runes := []rune(clean)
	parts := make([]string, 0, len(runes)/s.cfg.MaxChars+1)
	start := 0
	for start < len(runes) {
		end := start + s.cfg.MaxChars
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			break
		}

		cut := s.findCut(runes, start, end)
		parts = append(parts, string(runes[start:cut]))

		next := cut - s.cfg.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if utf8.RuneCountInString(trimmed) <= s.cfg.MinChars {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Text:    trimmed,
			Source:  source,
			Ordinal: len(chunks),
		})
	}

	if len(chunks) == 0 {
		return nil, domain.ErrNoMeaningfulContent
	}
	return chunks, nil
}

// findCut scans backwards from end for the best boundary at decreasing
// granularity: paragraph break, sentence end, word break. The cut never
// moves above the window midpoint, so progress is guaranteed even with
// overlap applied.
func (s *Splitter) findCut(runes []rune, start, end int) int {
	minCut := start + s.cfg.MaxChars/2

	for i := end; i > minCut && i >= 2; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}

	for i := end; i > minCut; i-- {
		r := runes[i-1]
		if (r == '.' || r == '!' || r == '?') && unicode.IsSpace(runes[i]) {
			return i
		}
	}

	for i := end; i > minCut; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	return end
}
