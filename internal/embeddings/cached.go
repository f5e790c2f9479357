package embeddings

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedClient wraps a Client with an in-memory LRU cache keyed by the exact
// input text. Repeated requests for the same text skip the inference call and
// return the identical vector. Cached slices are shared; callers must treat
// embeddings as read-only.
type CachedClient struct {
	inner Client
	cache *lru.Cache[string, []float32]
}

var _ Client = (*CachedClient)(nil)

// NewCachedClient wraps inner with a cache holding up to size entries.
func NewCachedClient(inner Client, size int) (*CachedClient, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embed cache: %w", err)
	}

	return &CachedClient{inner: inner, cache: cache}, nil
}

// GetEmbedding implements Client.
func (c *CachedClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}

	vec, err := c.inner.GetEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(text, vec)

	return vec, nil
}

// ModelName implements Client.
func (c *CachedClient) ModelName() string {
	return c.inner.ModelName()
}

// Dimensions implements Client.
func (c *CachedClient) Dimensions() int {
	return c.inner.Dimensions()
}
