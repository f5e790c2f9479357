// Package embeddings provides clients for generating text embeddings.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Client defines the interface for generating text embeddings.
// Implementations must be safe for concurrent use; the server shares a
// single client across all requests.
type Client interface {
	// GetEmbedding generates an embedding vector for the given text.
	// The text is passed to the model verbatim; callers must not trim or
	// normalize it first.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the identifier of the loaded model.
	ModelName() string

	// Dimensions returns the fixed length of the vectors this client produces.
	Dimensions() int
}

// ErrNotFinite is returned by Warmup when a probe embedding contains NaN or Inf.
var ErrNotFinite = errors.New("embeddings: probe embedding contains non-finite values")

// warmupProbe is the text encoded during startup verification. The value is
// arbitrary; it only has to survive a round trip through the model.
const warmupProbe = "warmup"

// Warmup verifies that the client's model is actually loaded and usable by
// running one encode call and checking the result against the advertised
// dimensionality. The server calls this once before accepting traffic so a
// missing or incompatible model fails the process instead of every request.
func Warmup(ctx context.Context, c Client) error {
	vec, err := c.GetEmbedding(ctx, warmupProbe)
	if err != nil {
		return fmt.Errorf("load model %q: %w", c.ModelName(), err)
	}

	if len(vec) != c.Dimensions() {
		return fmt.Errorf("load model %q: got %d dimensions, want %d",
			c.ModelName(), len(vec), c.Dimensions())
	}

	for _, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("load model %q: %w", c.ModelName(), ErrNotFinite)
		}
	}

	return nil
}
