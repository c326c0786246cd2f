package learning

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// stopWords are dropped during tokenisation; small and fixed, per §4.9's
// phase-1 algorithm.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "to": true, "of": true, "in": true,
	"on": true, "for": true, "and": true, "or": true, "is": true, "it": true,
	"my": true, "me": true, "please": true, "can": true, "you": true,
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// tokenizePrompt lowercases, strips non-alphanumeric runs to spaces, splits
// on whitespace, and drops stop words, per §4.9.
func tokenizePrompt(prompt string) map[string]bool {
	cleaned := nonAlphanumeric.ReplaceAllString(strings.ToLower(prompt), " ")
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(cleaned) {
		if stopWords[field] {
			continue
		}
		tokens[field] = true
	}
	return tokens
}

// jaccard computes the Jaccard similarity between two token sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// SimilarPattern pairs a stored pattern with its similarity score.
type SimilarPattern struct {
	Pattern Pattern
	Score   float64
}

// FindSimilar returns the top-k stored patterns whose prompt most overlaps
// query's, scored by Jaccard similarity over stop-word-filtered tokens.
// Only patterns with score > 0 are returned, in descending score order
// (ties broken by the most recent timestamp), per §4.9.
func (s *Store) FindSimilar(query string, k int) ([]SimilarPattern, error) {
	if k <= 0 {
		return nil, fmt.Errorf("learning: k must be positive, got %d", k)
	}

	patterns, err := s.allPrompts()
	if err != nil {
		return nil, err
	}

	queryTokens := tokenizePrompt(query)
	var scored []SimilarPattern
	for _, p := range patterns {
		score := jaccard(queryTokens, tokenizePrompt(p.Prompt))
		if score > 0 {
			scored = append(scored, SimilarPattern{Pattern: p, Score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Pattern.Timestamp.After(scored[j].Pattern.Timestamp)
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
