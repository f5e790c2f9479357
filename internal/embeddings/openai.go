package embeddings

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// defaultOpenAIModel matches text-embedding-3-small (1536 dimensions).
const (
	defaultOpenAIModel      = string(openai.SmallEmbedding3)
	defaultOpenAIDimensions = 1536
)

// OpenAIClient implements Client using OpenAI's embedding API. It exists for
// deployments that prefer a hosted model over a local Ollama server; the
// service contract is identical, only the dimensionality changes.
type OpenAIClient struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

var _ Client = (*OpenAIClient)(nil)

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithOpenAIModel sets the embedding model identifier.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.model = openai.EmbeddingModel(model)
	}
}

// WithOpenAIDimensions sets the expected vector dimensionality.
func WithOpenAIDimensions(dims int) OpenAIOption {
	return func(c *OpenAIClient) {
		c.dimensions = dims
	}
}

// NewOpenAIClient creates an OpenAI embedding client.
// Panics if apiKey is empty; config validation rejects that case earlier.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	if apiKey == "" {
		panic("embeddings: OpenAI API key cannot be empty")
	}

	c := &OpenAIClient{
		client:     openai.NewClient(apiKey),
		model:      openai.EmbeddingModel(defaultOpenAIModel),
		dimensions: defaultOpenAIDimensions,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetEmbedding implements Client.
func (c *OpenAIClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned from API")
	}

	emb := resp.Data[0].Embedding
	if len(emb) != c.dimensions {
		return nil, fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(emb), c.dimensions)
	}

	return emb, nil
}

// ModelName implements Client.
func (c *OpenAIClient) ModelName() string {
	return string(c.model)
}

// Dimensions implements Client.
func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}
