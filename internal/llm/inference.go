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

// InferenceClient talks to a raw text-generation backend (HF inference API
// style): the request carries one prompt string and the response may echo
// the prompt back in front of the generated answer.
type InferenceClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewInferenceClient(baseURL, apiKey, model string) *InferenceClient {
	return &InferenceClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *InferenceClient) Complete(ctx context.Context, req rag.CompletionRequest) (string, error) {
	resp, err := c.post(ctx, buildPrompt(req), false)
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

	var out []generateResponse
	if err := json.Unmarshal(body, &out); err != nil || len(out) == 0 {
		return "", &rag.CompletionError{StatusCode: resp.StatusCode, Message: "response missing generated_text"}
	}

	answer := extractAnswer(out[0].GeneratedText)
	if answer == "" {
		return "", &rag.CompletionError{StatusCode: resp.StatusCode, Message: "model returned empty answer"}
	}
	return answer, nil
}

// CompleteStream reads token events (SSE) from a streaming text-generation
// backend and forwards each token's text.
func (c *InferenceClient) CompleteStream(ctx context.Context, req rag.CompletionRequest, onChunk func(chunk string) error) error {
	resp, err := c.post(ctx, buildPrompt(req), true)
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
		if payload == "" {
			continue
		}

		var ev tokenEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}

		if !ev.Token.Special && ev.Token.Text != "" {
			if err := onChunk(ev.Token.Text); err != nil {
				return err
			}
		}
		// Final frame carries the full generated_text.
		if ev.GeneratedText != nil {
			break
		}
	}

	return scanner.Err()
}

func (c *InferenceClient) post(ctx context.Context, prompt string, stream bool) (*http.Response, error) {
	endpoint, err := url.JoinPath(c.baseURL, c.model)
	if err != nil {
		return nil, &rag.CompletionError{StatusCode: 0, Message: "invalid base URL"}
	}

	payload, err := json.Marshal(struct {
		generateRequest
		Stream bool `json:"stream,omitempty"`
	}{
		generateRequest: generateRequest{
			Inputs: prompt,
			Parameters: generateParameters{
				MaxNewTokens: defaultMaxTokens,
				Temperature:  defaultTemperature,
			},
		},
		Stream: stream,
	})
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

func buildPrompt(req rag.CompletionRequest) string {
	return fmt.Sprintf("[INST] %s\n\nQuestion: %s [/INST]\nAnswer:", req.System, req.Question)
}

// answerDelimiters mark where the prompt echo ends in a generated_text that
// includes the original prompt.
var answerDelimiters = []string{"[/INST]", "Answer:"}

// extractAnswer strips an echoed prompt: the answer is whatever follows the
// last delimiter occurrence. Text without any delimiter is returned whole.
func extractAnswer(text string) string {
	best := -1
	cut := 0
	for _, d := range answerDelimiters {
		if i := strings.LastIndex(text, d); i > best {
			best = i
			cut = i + len(d)
		}
	}
	if best < 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[cut:])
}

var _ rag.Completer = (*InferenceClient)(nil)
