package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"clipindex/internal/acquire"
	"clipindex/internal/embed"
	"clipindex/internal/vector"
)

// SearchHandler serves the retrieval contract: the sole read path into the
// vector store.
type SearchHandler struct {
	store    *vector.Store
	embedder embed.Client
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(store *vector.Store, embedder embed.Client) *SearchHandler {
	return &SearchHandler{store: store, embedder: embedder}
}

type searchRequest struct {
	Query     string    `json:"query"`
	Embedding []float32 `json:"embedding"`
	VideoIDs  []string  `json:"video_ids"`
	TopK      int       `json:"top_k"`
	Threshold float64   `json:"threshold"`
}

// Search embeds the query (unless a raw embedding is supplied) and runs
// similarity search over the candidate videos.
func (h *SearchHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(req.VideoIDs) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "video_ids is required"})
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}

	query := req.Embedding
	if len(query) == 0 {
		if req.Query == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "query or embedding is required"})
		}
		vectors, err := h.embedder.Embed(ctx, []string{req.Query})
		if err != nil {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "embedding query failed"})
		}
		query = vectors[0]
	}

	matches, err := h.store.Search(ctx, query, req.VideoIDs, req.TopK, req.Threshold)
	if err != nil {
		var ae *acquire.Error
		if errors.As(err, &ae) && ae.Kind == acquire.KindDimensionMismatch {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": ae.Message})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"matches": matches})
}
