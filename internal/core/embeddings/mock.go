package embeddings

import (
	"context"
	"hash/fnv"
	"math"
)

// splitmix64 constants, used to stretch the text hash into a vector.
const (
	mixGamma = 0x9E3779B97F4A7C15
	mixMul1  = 0xBF58476D1CE4E5B9
	mixMul2  = 0x94D049BB133111EB
)

// MockProvider returns deterministic unit vectors derived from the text
// hash. It backs tests that need stable embeddings without a real backend.
type MockProvider struct {
	dimensions int
}

// NewMockProvider creates a mock provider. Zero dims means the default.
func NewMockProvider(dims int) *MockProvider {
	if dims <= 0 {
		dims = DefaultDimensions
	}

	return &MockProvider{dimensions: dims}
}

// Name returns the provider identifier.
func (p *MockProvider) Name() ProviderName {
	return ProviderMock
}

// Model returns the model identifier.
func (p *MockProvider) Model() string {
	return string(ProviderMock)
}

// GetEmbedding generates a deterministic embedding from the text hash, so
// the same input always yields the same vector.
func (p *MockProvider) GetEmbedding(_ context.Context, text string) (EmbeddingResult, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text)) // fnv.Write never returns an error

	state := h.Sum64()

	vec := make([]float32, p.dimensions)

	var norm float64

	for i := range vec {
		state += mixGamma

		z := state
		z = (z ^ (z >> 30)) * mixMul1
		z = (z ^ (z >> 27)) * mixMul2
		z ^= z >> 31

		v := float64(z>>11)/float64(1<<53)*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return EmbeddingResult{
		Vector:     vec,
		Dimensions: p.dimensions,
		Provider:   ProviderMock,
	}, nil
}
