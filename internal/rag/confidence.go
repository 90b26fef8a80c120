// Package rag answers questions from the knowledge base with retrieval,
// confidence gating and LLM generation.
package rag

import "math"

// Confidence aggregates retrieval similarity scores into a single confidence
// value. Each score is weighted by exp of a value evenly spaced from -1 to 0,
// so later scores in the slice carry more weight, and the weighted scores are
// averaged. An empty slice scores 0 and a single score s gives s/e.
func Confidence(scores []float64) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return scores[0] * math.Exp(-1)
	}
	var sum float64
	for i, s := range scores {
		w := math.Exp(-1 + float64(i)/float64(n-1))
		sum += s * w
	}
	return sum / float64(n)
}
