package rag

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuestion = errors.New("question is required")

	// ErrEmbeddingUnavailable means the question could not be turned into
	// a vector. There is no fallback embedding source, so this aborts the
	// whole invocation.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrModelLoading is the cold-start signal from the completion
	// backend: the model is not ready yet and the call may be retried.
	ErrModelLoading = errors.New("completion model is loading")
)

// CompletionError é a falha dura do backend de completion: status não-2xx
// (exceto cold start) ou resposta sem os campos esperados.
type CompletionError struct {
	StatusCode int
	Message    string
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed (status %d): %s", e.StatusCode, e.Message)
}
