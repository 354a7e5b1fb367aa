package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// Mock is a deterministic embedder for tests and offline runs. The
// same text always maps to the same unit-length vector.
type Mock struct {
	dims int
}

// NewMock returns a mock embedder with the given dimensionality.
func NewMock(dims int) *Mock {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Mock{dims: dims}
}

// EmbedText derives a pseudo-random vector from the text hash and
// normalizes it to unit length.
func (m *Mock) EmbedText(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dims)
	var sum float64
	for i := range vec {
		vec[i] = float32(math.Sin(float64(seed%1000)*float64(i+1)) * 0.1)
		sum += float64(vec[i]) * float64(vec[i])
	}
	if sum > 0 {
		norm := float32(1 / math.Sqrt(sum))
		for i := range vec {
			vec[i] *= norm
		}
	}
	return vec, nil
}

// ModelName identifies the mock model.
func (m *Mock) ModelName() string {
	return "mock"
}

// Dimensions returns the configured dimensionality.
func (m *Mock) Dimensions() int {
	return m.dims
}
