package embeddings

import (
	"context"
	"crypto/sha256"
	"math"
)

// MockClient implements Client for tests and local development without an
// inference backend. Vectors are derived from a hash of the input, so the
// same text always maps to the same embedding, mirroring a real model's
// determinism.
type MockClient struct {
	dimensions int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock client with the default 384 dimensions
// (matching all-MiniLM-L6-v2).
func NewMockClient() *MockClient {
	return &MockClient{dimensions: DefaultDimensions}
}

// NewMockClientWithDimensions creates a mock client with custom dimensions.
func NewMockClientWithDimensions(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// GetEmbedding implements Client. It never fails; error paths are exercised
// with purpose-built fakes in the handler tests.
func (c *MockClient) GetEmbedding(_ context.Context, text string) ([]float32, error) {
	return c.deterministicEmbedding(text), nil
}

// ModelName implements Client.
func (c *MockClient) ModelName() string {
	return "mock"
}

// Dimensions implements Client.
func (c *MockClient) Dimensions() int {
	return c.dimensions
}

// deterministicEmbedding creates a unit-length vector from the text hash.
func (c *MockClient) deterministicEmbedding(text string) []float32 {
	hash := sha256.Sum256([]byte(text))
	embedding := make([]float32, c.dimensions)

	for i := 0; i < c.dimensions; i++ {
		// Cycle over the hash bytes, mapping each into [-1, 1].
		b := hash[(i+i/len(hash))%len(hash)]
		embedding[i] = (float32(b) / 127.5) - 1.0
	}

	return normalize(embedding)
}

// normalize scales a vector to unit length. Zero vectors are returned as-is.
func normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	magnitude := float32(math.Sqrt(sum))
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = val / magnitude
	}

	return normalized
}
