package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultOllamaModel is the Ollama build of all-MiniLM-L6-v2, the model
	// this service loads by default.
	DefaultOllamaModel = "all-minilm:l6-v2"

	// DefaultDimensions is the output dimensionality of all-MiniLM-L6-v2.
	DefaultDimensions = 384

	defaultOllamaTimeout = 60 * time.Second

	apiPathTags       = "/api/tags"
	apiPathEmbeddings = "/api/embeddings"
)

// OllamaClient implements Client against a local Ollama server. Ollama is the
// inference runtime that hosts the sentence-embedding model; this client only
// ships text to it and validates what comes back.
type OllamaClient struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

var _ Client = (*OllamaClient)(nil)

// OllamaOption configures an OllamaClient.
type OllamaOption func(*OllamaClient)

// WithBaseURL sets the Ollama API base URL.
func WithBaseURL(url string) OllamaOption {
	return func(c *OllamaClient) {
		c.baseURL = url
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) OllamaOption {
	return func(c *OllamaClient) {
		c.model = model
	}
}

// WithDimensions sets the expected vector dimensionality.
func WithDimensions(dims int) OllamaOption {
	return func(c *OllamaClient) {
		c.dimensions = dims
	}
}

// WithHTTPTimeout sets the HTTP client timeout for inference calls.
func WithHTTPTimeout(timeout time.Duration) OllamaOption {
	return func(c *OllamaClient) {
		c.client.Timeout = timeout
	}
}

// NewOllamaClient creates a client for the all-minilm:l6-v2 model on a local
// Ollama server. Options override the base URL, model, and dimensions.
func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		baseURL:    DefaultOllamaURL,
		model:      DefaultOllamaModel,
		dimensions: DefaultDimensions,
		client:     &http.Client{Timeout: defaultOllamaTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetEmbedding implements Client. The text is forwarded to the model
// verbatim; empty or over-long input is the model's business, not ours.
func (c *OllamaClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(ollamaEmbedRequest{
		Model:  c.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPathEmbeddings, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed (is Ollama running at %s?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	if len(result.Embedding) != c.dimensions {
		return nil, fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(result.Embedding), c.dimensions)
	}

	return result.Embedding, nil
}

// ModelName implements Client.
func (c *OllamaClient) ModelName() string {
	return c.model
}

// Dimensions implements Client.
func (c *OllamaClient) Dimensions() int {
	return c.dimensions
}

// HasModel reports whether the configured model is present on the Ollama
// server. Used at startup so a missing model aborts the process instead of
// failing every request.
func (c *OllamaClient) HasModel(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPathTags, nil)
	if err != nil {
		return false, fmt.Errorf("create tags request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("ollama is not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode tags response: %w", err)
	}

	for _, m := range result.Models {
		if m.Name == c.model {
			return true, nil
		}
	}

	return false, nil
}

// readErrorBody extracts the error message from an Ollama error response,
// falling back to the raw body.
func readErrorBody(body io.Reader) string {
	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}

	var errResp ollamaErrorResponse
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
		return errResp.Error
	}

	return string(raw)
}

// ollamaEmbedRequest is the request body for POST /api/embeddings.
type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaEmbedResponse is the response from POST /api/embeddings.
type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// ollamaTagsResponse is the response from GET /api/tags.
type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ollamaErrorResponse is the error body Ollama returns on failures.
type ollamaErrorResponse struct {
	Error string `json:"error"`
}
