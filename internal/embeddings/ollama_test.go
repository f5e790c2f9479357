package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOllamaClient_Defaults(t *testing.T) {
	client := NewOllamaClient()

	assert.Equal(t, DefaultOllamaURL, client.baseURL)
	assert.Equal(t, DefaultOllamaModel, client.model)
	assert.Equal(t, DefaultDimensions, client.dimensions)
	assert.NotNil(t, client.client)
}

func TestNewOllamaClient_WithOptions(t *testing.T) {
	client := NewOllamaClient(
		WithBaseURL("http://custom:8080"),
		WithModel("custom-model"),
		WithDimensions(768),
		WithHTTPTimeout(5*time.Second),
	)

	assert.Equal(t, "http://custom:8080", client.baseURL)
	assert.Equal(t, "custom-model", client.model)
	assert.Equal(t, 768, client.dimensions)
	assert.Equal(t, 5*time.Second, client.client.Timeout)
}

func TestOllamaClient_GetEmbedding(t *testing.T) {
	t.Run("returns vector and sends text verbatim", func(t *testing.T) {
		var gotPrompt string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, apiPathEmbeddings, r.URL.Path)

			var req ollamaEmbedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			gotPrompt = req.Prompt

			vec := make([]float32, 4)
			for i := range vec {
				vec[i] = float32(i) * 0.5
			}

			require.NoError(t, json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: vec}))
		}))
		defer server.Close()

		client := NewOllamaClient(WithBaseURL(server.URL), WithDimensions(4))

		vec, err := client.GetEmbedding(context.Background(), "  hello \n")
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0.5, 1, 1.5}, vec)
		assert.Equal(t, "  hello \n", gotPrompt)
	})

	t.Run("dimension mismatch is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: make([]float32, 7)})
		}))
		defer server.Close()

		client := NewOllamaClient(WithBaseURL(server.URL), WithDimensions(384))

		_, err := client.GetEmbedding(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected embedding dimensions")
	})

	t.Run("backend error status surfaces the message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "model runner crashed"})
		}))
		defer server.Close()

		client := NewOllamaClient(WithBaseURL(server.URL))

		_, err := client.GetEmbedding(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model runner crashed")
	})

	t.Run("unreachable server is an error", func(t *testing.T) {
		client := NewOllamaClient(WithBaseURL("http://127.0.0.1:1"), WithHTTPTimeout(time.Second))

		_, err := client.GetEmbedding(context.Background(), "hello")
		require.Error(t, err)
	})
}

func TestOllamaClient_HasModel(t *testing.T) {
	tagsServer := func(names ...string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, apiPathTags, r.URL.Path)

			models := make([]map[string]string, 0, len(names))
			for _, n := range names {
				models = append(models, map[string]string{"name": n})
			}

			_ = json.NewEncoder(w).Encode(map[string]any{"models": models})
		}))
	}

	t.Run("model present", func(t *testing.T) {
		server := tagsServer("llama3:8b", DefaultOllamaModel)
		defer server.Close()

		client := NewOllamaClient(WithBaseURL(server.URL))

		found, err := client.HasModel(context.Background())
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("model absent", func(t *testing.T) {
		server := tagsServer("llama3:8b")
		defer server.Close()

		client := NewOllamaClient(WithBaseURL(server.URL))

		found, err := client.HasModel(context.Background())
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestWarmup(t *testing.T) {
	t.Run("healthy backend passes", func(t *testing.T) {
		err := Warmup(context.Background(), NewMockClient())
		require.NoError(t, err)
	})

	t.Run("dimension mismatch fails startup", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: make([]float32, 100)})
		}))
		defer server.Close()

		client := NewOllamaClient(WithBaseURL(server.URL), WithDimensions(384))

		err := Warmup(context.Background(), client)
		require.Error(t, err)
	})

	t.Run("unreachable backend fails startup", func(t *testing.T) {
		client := NewOllamaClient(WithBaseURL("http://127.0.0.1:1"), WithHTTPTimeout(time.Second))

		err := Warmup(context.Background(), client)
		require.Error(t, err)
	})
}
