// Package handlers contains the HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/adhnannp/Embedding-API/internal/api/response"
	"github.com/adhnannp/Embedding-API/internal/api/validation"
	"github.com/adhnannp/Embedding-API/internal/embeddings"
	"github.com/adhnannp/Embedding-API/internal/observability"
)

// EmbedRequest is the body for POST /embed.
// Text is a pointer so a missing field is distinguishable from an explicit
// empty string: the former is a validation error, the latter is passed
// through to the model untouched.
type EmbedRequest struct {
	Text *string `json:"text" validate:"required"`
}

// EmbedResponse is the success body for POST /embed. The embedding holds
// every component of the model's output vector in its native order.
type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedHandler handles HTTP requests for text embedding.
type EmbedHandler struct {
	client  embeddings.Client
	metrics *observability.Metrics
}

// NewEmbedHandler creates an embed handler around the given client.
// metrics may be nil.
func NewEmbedHandler(client embeddings.Client, metrics *observability.Metrics) *EmbedHandler {
	return &EmbedHandler{client: client, metrics: metrics}
}

// Embed handles POST /embed.
func (h *EmbedHandler) Embed(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			response.RespondUnprocessableEntity(w, "text must be a string")

			return
		}

		response.RespondUnprocessableEntity(w, "Invalid request body")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	start := time.Now()

	embedding, err := h.client.GetEmbedding(r.Context(), *req.Text)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to generate embedding", "error", err)
		response.RespondInternalServerError(w, "Embedding failed")

		return
	}

	h.metrics.ObserveEncodeDuration(time.Since(start))

	response.RespondJSON(w, http.StatusOK, EmbedResponse{Embedding: embedding})
}
