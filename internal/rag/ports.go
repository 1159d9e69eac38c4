package rag

import "context"

type Embedder interface {
	// Embed converts text into the deployment's embedding vector. The
	// dimensionality is whatever the configured model produces; callers
	// must not assume a fixed size.
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Retriever interface {
	// Search returns the passages most similar to the query vector,
	// ordered by descending similarity as ranked by the store. A store
	// failure degrades to an empty result; it must not abort the caller.
	Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]Passage, error)
}

type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// CompleteStream delivers the answer incrementally through onChunk.
	// The stream is finite and not restartable; an error returned by
	// onChunk aborts the stream.
	CompleteStream(ctx context.Context, req CompletionRequest, onChunk func(chunk string) error) error
}
