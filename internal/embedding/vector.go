package embedding

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyEmbedding reports a provider result with no usable values.
	ErrEmptyEmbedding = errors.New("empty embedding")
	// ErrDimensionMismatch reports vectors of different lengths.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Flatten reduces provider output to one fixed-length vector. A single frame
// is returned as a copy; multiple frames are averaged over the time axis.
func Flatten(frames Frames) ([]float64, error) {
	return Mean(frames)
}

// Mean returns the element-wise arithmetic mean of equally sized vectors.
func Mean(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrEmptyEmbedding
	}
	dim := len(vectors[0])
	out := make([]float64, dim)
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, want %d", ErrDimensionMismatch, i, len(vec), dim)
		}
		for j, v := range vec {
			out[j] += v
		}
	}
	if len(vectors) == 1 {
		return out, nil
	}
	n := float64(len(vectors))
	for j := range out {
		out[j] /= n
	}
	return out, nil
}

// Cosine computes dot(a,b) / (|a|*|b|). Returns 0 if either vector has zero
// norm.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
