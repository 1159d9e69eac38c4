package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"payrollassist/internal/rag"
)

// EmbeddingClient calls an HTTP embedding backend. Some deployments return
// the vector flat, others wrap it in a singleton array; both are normalized
// to a flat vector here so nothing downstream has to care.
type EmbeddingClient struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

func NewEmbeddingClient(endpoint, apiKey, model string) *EmbeddingClient {
	return &EmbeddingClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

// Embed converts text into the model's vector. Every failure mode (bad
// status, unparseable body, timeout) wraps rag.ErrEmbeddingUnavailable; the
// client never retries, the orchestrator treats this as fatal.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	endpoint, err := url.JoinPath(c.endpoint, c.model)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint: %v", rag.ErrEmbeddingUnavailable, err)
	}

	payload, err := json.Marshal(embedRequest{Input: text, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", rag.ErrEmbeddingUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", rag.ErrEmbeddingUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", rag.ErrEmbeddingUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", rag.ErrEmbeddingUnavailable, resp.StatusCode)
	}

	vector, err := parseEmbedding(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrEmbeddingUnavailable, err)
	}
	return vector, nil
}

// parseEmbedding accepts the two shapes the backend is known to produce:
// [0.1, ...] and [[0.1, ...]].
func parseEmbedding(body []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}

	return nil, fmt.Errorf("unexpected embedding response shape")
}

var _ rag.Embedder = (*EmbeddingClient)(nil)
