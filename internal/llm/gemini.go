package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"payrollassist/internal/rag"
)

// GeminiClient is the alternate provider: one genai client serving both the
// embedding and the completion side of the pipeline.
type GeminiClient struct {
	client          *genai.Client
	embeddingModel  string
	completionModel string
}

func NewGeminiClient(ctx context.Context, apiKey, embeddingModel, completionModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:          c,
		embeddingModel:  embeddingModel,
		completionModel: completionModel,
	}, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty text for embedding", rag.ErrEmbeddingUnavailable)
	}

	resp, err := g.client.Models.EmbedContent(
		ctx,
		g.embeddingModel,
		genai.Text(clean),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrEmbeddingUnavailable, err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", rag.ErrEmbeddingUnavailable)
	}

	// Dimensionality is whatever the configured model produces.
	return append([]float32(nil), resp.Embeddings[0].Values...), nil
}

func (g *GeminiClient) Complete(ctx context.Context, req rag.CompletionRequest) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.completionModel,
		genai.Text(req.Question),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.Text(req.System)[0],
		},
	)
	if err != nil {
		return "", mapGenaiError(err)
	}

	if resp == nil {
		return "", &rag.CompletionError{StatusCode: 0, Message: "empty response from gemini"}
	}

	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return "", &rag.CompletionError{StatusCode: 0, Message: "model returned empty text"}
	}

	return txt, nil
}

func (g *GeminiClient) CompleteStream(ctx context.Context, req rag.CompletionRequest, onChunk func(chunk string) error) error {
	for resp, err := range g.client.Models.GenerateContentStream(
		ctx,
		g.completionModel,
		genai.Text(req.Question),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.Text(req.System)[0],
		},
	) {
		if err != nil {
			return mapGenaiError(err)
		}
		if txt := resp.Text(); txt != "" {
			if err := onChunk(txt); err != nil {
				return err
			}
		}
	}
	return nil
}

func mapGenaiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusServiceUnavailable {
			return fmt.Errorf("%w: %s", rag.ErrModelLoading, apiErr.Message)
		}
		return &rag.CompletionError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return fmt.Errorf("gemini generateContent error: %w", err)
}

func normalizeWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			if !space {
				b.WriteRune(' ')
				space = true
			}
		} else {
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

var _ rag.Embedder = (*GeminiClient)(nil)
var _ rag.Completer = (*GeminiClient)(nil)
