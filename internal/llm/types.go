package llm

import (
	"fmt"
	"net/http"
	"strings"

	"payrollassist/internal/rag"
)

// OpenAI-compatible chat completion payloads (HF router / llama.cpp style).

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Raw text-generation payloads (HF inference API style).

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// tokenEvent is one SSE frame from a streaming text-generation backend.
type tokenEvent struct {
	Token struct {
		Text    string `json:"text"`
		Special bool   `json:"special"`
	} `json:"token"`
	GeneratedText *string `json:"generated_text"`
}

const (
	defaultMaxTokens   = 512
	defaultTemperature = 0.2
)

// completionStatusError maps a non-2xx completion status to the pipeline's
// error taxonomy: 503 is the cold-start signal, everything else is a hard
// failure carrying the backend's message.
func completionStatusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	if status == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %s", rag.ErrModelLoading, msg)
	}
	return &rag.CompletionError{StatusCode: status, Message: msg}
}
