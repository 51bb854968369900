package rank

import (
	"math"

	"github.com/hireloop/matchrank/internal/domain"
)

// cosine returns the cosine similarity of two vectors in [-1,1].
// Zero-magnitude vectors score 0; mismatched lengths are a data-quality
// signal the caller logs and scores 0, never a fatal error.
func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// normalizeCosine maps [-1,1] to [0,1] so vector and lexical scores share a scale.
func normalizeCosine(cos float64) float64 {
	return (cos + 1) / 2
}
