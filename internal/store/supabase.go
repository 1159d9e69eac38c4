package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"payrollassist/internal/rag"
)

const matchFunction = "match_documents"

// SupabaseClient runs similarity search through the PostgREST RPC exposed by
// a Supabase project. A failed search degrades to zero passages: no grounding
// is an answerable condition, a missing answer representation is not.
type SupabaseClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewSupabaseClient(baseURL, apiKey string) *SupabaseClient {
	return &SupabaseClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type matchRequest struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MatchCount     int       `json:"match_count"`
}

type matchRow struct {
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

func (c *SupabaseClient) Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]rag.Passage, error) {
	if limit <= 0 {
		limit = 5
	}

	endpoint, err := url.JoinPath(c.baseURL, "/rest/v1/rpc/", matchFunction)
	if err != nil {
		log.Printf("store: invalid supabase URL: %v", err)
		return nil, nil
	}

	payload, err := json.Marshal(matchRequest{
		QueryEmbedding: vector,
		MatchThreshold: threshold,
		MatchCount:     limit,
	})
	if err != nil {
		log.Printf("store: marshal match request: %v", err)
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		log.Printf("store: create match request: %v", err)
		return nil, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("store: vector search request failed: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("store: read search response: %v", err)
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("store: vector search returned status %d, treating as no matches", resp.StatusCode)
		return nil, nil
	}

	var rows []matchRow
	if err := json.Unmarshal(body, &rows); err != nil {
		log.Printf("store: unparseable search response, treating as no matches: %v", err)
		return nil, nil
	}

	// Store order is kept as-is; rows arrive ranked by similarity.
	passages := make([]rag.Passage, 0, len(rows))
	for _, r := range rows {
		passages = append(passages, rag.Passage{Content: r.Content, Similarity: r.Similarity})
	}
	return passages, nil
}

var _ rag.Retriever = (*SupabaseClient)(nil)
