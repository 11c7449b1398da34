package service

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/petal-labs/ira/internal/domain"
)

var fuzzyParams = levenshtein.NewParams()

// FuzzyMatch finds the corpus chunk most lexically similar to the query,
// scoring each candidate by normalized edit distance. Short queries are
// also slid across longer chunks so a query matching a fragment of a
// chunk still scores well. Returns the best chunk text and a score in
// [0,1]; ("", 0) when the corpus is empty.
func FuzzyMatch(query string, corpus []domain.Chunk) (string, float64) {
	q := normalizeFuzzy(query)
	if q == "" || len(corpus) == 0 {
		return "", 0
	}

	bestIdx := 0
	bestScore := -1.0
	for i, c := range corpus {
		cand := normalizeFuzzy(c.Text)
		score := levenshtein.Similarity(q, cand, fuzzyParams)
		if w := windowScore(q, cand); w > score {
			score = w
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestScore < 0 {
		bestScore = 0
	}
	return corpus[bestIdx].Text, bestScore
}

// windowScore slides a query-sized window across the candidate and keeps
// the best per-window similarity. Half-window steps keep the scan cheap
// on thousand-char chunks.
func windowScore(query, candidate string) float64 {
	qr := []rune(query)
	cr := []rune(candidate)
	if len(cr) <= len(qr) || len(qr) == 0 {
		return 0
	}

	step := len(qr) / 2
	if step < 1 {
		step = 1
	}

	best := 0.0
	for i := 0; i+len(qr) <= len(cr); i += step {
		s := levenshtein.Similarity(query, string(cr[i:i+len(qr)]), fuzzyParams)
		if s > best {
			best = s
		}
	}
	return best
}

func normalizeFuzzy(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
