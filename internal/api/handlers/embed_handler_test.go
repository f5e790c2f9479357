package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhnannp/Embedding-API/internal/embeddings"
)

// mockEmbeddingClient lets each test control the encode result and observe
// whether the model was invoked.
type mockEmbeddingClient struct {
	embedFunc func(ctx context.Context, text string) ([]float32, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockEmbeddingClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.embedFunc != nil {
		return m.embedFunc(ctx, text)
	}

	return make([]float32, 384), nil
}

func (m *mockEmbeddingClient) ModelName() string { return "mock" }

func (m *mockEmbeddingClient) Dimensions() int { return 384 }

func (m *mockEmbeddingClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.calls)
}

func postEmbed(handler *EmbedHandler, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "http://test/embed", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.Embed(rec, req)

	return rec
}

func TestEmbedHandler_Embed(t *testing.T) {
	t.Run("valid text returns 200 with full-length finite embedding", func(t *testing.T) {
		client := embeddings.NewMockClient()
		handler := NewEmbedHandler(client, nil)

		rec := postEmbed(handler, []byte(`{"text":"hello world"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp EmbedResponse

		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		require.Len(t, resp.Embedding, 384)

		for i, v := range resp.Embedding {
			require.Falsef(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0),
				"component %d is not finite", i)
		}
	})

	t.Run("missing text returns 422 and never invokes the model", func(t *testing.T) {
		client := &mockEmbeddingClient{}
		handler := NewEmbedHandler(client, nil)

		rec := postEmbed(handler, []byte(`{}`))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		assert.Zero(t, client.callCount())
	})

	t.Run("non-string text returns 422 and never invokes the model", func(t *testing.T) {
		client := &mockEmbeddingClient{}
		handler := NewEmbedHandler(client, nil)

		rec := postEmbed(handler, []byte(`{"text":42}`))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Zero(t, client.callCount())
	})

	t.Run("malformed JSON returns 422", func(t *testing.T) {
		client := &mockEmbeddingClient{}
		handler := NewEmbedHandler(client, nil)

		rec := postEmbed(handler, []byte(`{"text":`))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Zero(t, client.callCount())
	})

	t.Run("empty string is passed through to the model", func(t *testing.T) {
		client := &mockEmbeddingClient{}
		handler := NewEmbedHandler(client, nil)

		rec := postEmbed(handler, []byte(`{"text":""}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 1, client.callCount())
		assert.Equal(t, "", client.calls[0])
	})

	t.Run("text is forwarded verbatim without trimming", func(t *testing.T) {
		client := &mockEmbeddingClient{}
		handler := NewEmbedHandler(client, nil)

		rec := postEmbed(handler, []byte(`{"text":"  padded \n"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 1, client.callCount())
		assert.Equal(t, "  padded \n", client.calls[0])
	})

	t.Run("encode failure returns 500 without internal detail", func(t *testing.T) {
		client := &mockEmbeddingClient{
			embedFunc: func(context.Context, string) ([]float32, error) {
				return nil, errors.New("tensor shape mismatch in layer 4")
			},
		}
		handler := NewEmbedHandler(client, nil)

		rec := postEmbed(handler, []byte(`{"text":"hello"}`))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "tensor")
	})

	t.Run("same text twice yields identical embeddings", func(t *testing.T) {
		client := embeddings.NewMockClient()
		handler := NewEmbedHandler(client, nil)

		first := postEmbed(handler, []byte(`{"text":"hello world"}`))
		second := postEmbed(handler, []byte(`{"text":"hello world"}`))

		require.Equal(t, http.StatusOK, first.Code)
		require.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
	})
}

func TestEmbedHandler_ConcurrentRequests(t *testing.T) {
	// Each goroutine sends a distinct text; the mock derives the vector from
	// the text, so a cross-request mix-up would surface as a wrong embedding.
	client := embeddings.NewMockClient()
	handler := NewEmbedHandler(client, nil)

	const workers = 16

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			text := fmt.Sprintf("request %d", i)
			body, err := json.Marshal(EmbedRequest{Text: &text})
			require.NoError(t, err)

			rec := postEmbed(handler, body)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp EmbedResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

			want, err := client.GetEmbedding(context.Background(), text)
			require.NoError(t, err)
			assert.Equal(t, want, resp.Embedding)
		}(i)
	}

	wg.Wait()
}
