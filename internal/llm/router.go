package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"payrollassist/internal/rag"
)

// RouterClient talks to an OpenAI-compatible chat-completions endpoint
// (the HF router, llama.cpp server, etc).
type RouterClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewRouterClient(baseURL, apiKey, model string) *RouterClient {
	return &RouterClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *RouterClient) Complete(ctx context.Context, req rag.CompletionRequest) (string, error) {
	resp, err := c.post(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Question},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &rag.CompletionError{StatusCode: resp.StatusCode, Message: "read response: " + err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return "", completionStatusError(resp.StatusCode, body)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil || len(out.Choices) == 0 {
		return "", &rag.CompletionError{StatusCode: resp.StatusCode, Message: "response missing choices"}
	}

	answer := strings.TrimSpace(out.Choices[0].Message.Content)
	if answer == "" {
		return "", &rag.CompletionError{StatusCode: resp.StatusCode, Message: "model returned empty answer"}
	}
	return answer, nil
}

// CompleteStream reads the SSE stream and forwards each content delta.
// The stream ends on the [DONE] sentinel or a finish_reason.
func (c *RouterClient) CompleteStream(ctx context.Context, req rag.CompletionRequest, onChunk func(chunk string) error) error {
	resp, err := c.post(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Question},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
		Stream:      true,
	}, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return completionStatusError(resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue // skip malformed frames
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		if content := chunk.Choices[0].Delta.Content; content != "" {
			if err := onChunk(content); err != nil {
				return err
			}
		}
		if chunk.Choices[0].FinishReason != nil {
			break
		}
	}

	return scanner.Err()
}

func (c *RouterClient) post(ctx context.Context, body chatRequest, stream bool) (*http.Response, error) {
	endpoint, err := url.JoinPath(c.baseURL, "/chat/completions")
	if err != nil {
		return nil, &rag.CompletionError{StatusCode: 0, Message: "invalid base URL"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &rag.CompletionError{StatusCode: 0, Message: "marshal request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &rag.CompletionError{StatusCode: 0, Message: "create request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	return resp, nil
}

var _ rag.Completer = (*RouterClient)(nil)
