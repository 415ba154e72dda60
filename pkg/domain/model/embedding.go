package model

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// Embedding is a fixed-length vector representation of text. Its length is
// determined by the embedding model and is constant for the lifetime of a
// corpus; vectors from different models must never be compared.
type Embedding []float32

// ErrInvalidEmbedding indicates caller misuse: an empty vector or a
// comparison between vectors of different lengths.
var ErrInvalidEmbedding = goerr.New("invalid embedding vector")

// CosineSimilarity computes the cosine similarity between two embeddings.
// A zero-norm vector is defined as maximally dissimilar to everything
// (similarity 0), including itself. The result is clamped to [-1, 1] to
// absorb floating-point drift before being used as a confidence score.
func CosineSimilarity(a, b Embedding) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, goerr.Wrap(ErrInvalidEmbedding, "embedding must not be empty",
			goerr.V("lenA", len(a)), goerr.V("lenB", len(b)))
	}
	if len(a) != len(b) {
		return 0, goerr.Wrap(ErrInvalidEmbedding, "embedding length mismatch",
			goerr.V("lenA", len(a)), goerr.V("lenB", len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}

	return math.Max(-1, math.Min(1, dot/denom)), nil
}
