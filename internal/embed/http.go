package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"clipindex/internal/acquire"
)

// HTTPConfig configures the remote embedding provider.
type HTTPConfig struct {
	Endpoint       string // e.g. "https://api.openai.com/v1/embeddings"
	APIKey         string
	Model          string
	Dimension      int
	BatchSize      int     // texts per request
	RequestsPerSec float64 // client-side rate limit
}

// HTTPClient calls an OpenAI-compatible embeddings endpoint.
type HTTPClient struct {
	cfg     HTTPConfig
	http    *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient creates the remote embedding client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	return &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Dimension implements Client.
func (c *HTTPClient) Dimension() int { return c.cfg.Dimension }

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements Client, batching the texts across requests.
func (c *HTTPClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.cfg.APIKey == "" {
		return nil, acquire.NewError(acquire.KindAuthMissing, "no embedding API key configured")
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	if err := checkDimensions(out, c.cfg.Dimension); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, acquire.WrapError(acquire.KindNetworkError, "rate limiter interrupted", err)
	}

	payload, err := json.Marshal(embeddingRequest{Model: c.cfg.Model, Input: texts})
	if err != nil {
		return nil, acquire.WrapError(acquire.KindInternal, "marshal embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, acquire.WrapError(acquire.KindInternal, "build embedding request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, acquire.WrapError(acquire.KindNetworkError, "call embedding backend", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, acquire.NewError(acquire.KindAuthMissing, "embedding backend rejected credentials")
	case http.StatusTooManyRequests:
		return nil, acquire.NewError(acquire.KindRateLimited, "rate limited by embedding backend")
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, acquire.NewError(acquire.KindNetworkError,
			fmt.Sprintf("embedding backend returned status %d: %s", resp.StatusCode, detail))
	}

	var body embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, acquire.WrapError(acquire.KindNetworkError, "decode embedding response", err)
	}
	if len(body.Data) != len(texts) {
		return nil, acquire.NewError(acquire.KindInternal,
			fmt.Sprintf("embedding backend returned %d vectors for %d inputs", len(body.Data), len(texts)))
	}

	// The API may reorder; index puts vectors back in input order.
	vectors := make([][]float32, len(texts))
	for _, d := range body.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, acquire.NewError(acquire.KindInternal,
				fmt.Sprintf("embedding backend returned out-of-range index %d", d.Index))
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
