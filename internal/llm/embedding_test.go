package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrollassist/internal/rag"
)

func TestEmbed_FlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is my gross pay?", req.Input)
		assert.Equal(t, "test-model", req.Model)

		_ = json.NewEncoder(w).Encode([]float32{0.1, 0.2, 0.3})
	}))
	defer srv.Close()

	client := NewEmbeddingClient(srv.URL, "secret", "test-model")
	vec, err := client.Embed(context.Background(), "What is my gross pay?")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbed_NestedResponseIsFlattened(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]float32{{0.4, 0.5}})
	}))
	defer srv.Close()

	client := NewEmbeddingClient(srv.URL, "", "test-model")
	vec, err := client.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.4, 0.5}, vec)
}

func TestEmbed_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewEmbeddingClient(srv.URL, "bad-key", "test-model")
	_, err := client.Embed(context.Background(), "hello")

	assert.ErrorIs(t, err, rag.ErrEmbeddingUnavailable)
}

func TestEmbed_UnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detail":"not a vector"}`))
	}))
	defer srv.Close()

	client := NewEmbeddingClient(srv.URL, "", "test-model")
	_, err := client.Embed(context.Background(), "hello")

	assert.ErrorIs(t, err, rag.ErrEmbeddingUnavailable)
}

func TestEmbed_SendsBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]float32{0.1})
	}))
	defer srv.Close()

	client := NewEmbeddingClient(srv.URL, "secret", "test-model")
	_, err := client.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
}
