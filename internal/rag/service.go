package rag

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	wl "github.com/abadojack/whatlanggo"
)

// Service liga o pipeline todo: pergunta -> embedding -> busca vetorial ->
// contexto -> completion. Sem estado compartilhado entre invocações.
type Service struct {
	embedder  Embedder
	retriever Retriever
	completer Completer
	threshold float64
	limit     int
	backoff   time.Duration
}

func NewService(embedder Embedder, retriever Retriever, completer Completer, threshold float64, limit int) *Service {
	return &Service{
		embedder:  embedder,
		retriever: retriever,
		completer: completer,
		threshold: threshold,
		limit:     limit,
		backoff:   coldStartBackoff,
	}
}

// Answer runs the pipeline in buffered mode. Pipeline outcomes (including
// backend failures) are encoded in the Result; the error return is reserved
// for invalid input and context cancellation.
func (s *Service) Answer(ctx context.Context, question string) (Result, error) {
	req, res, err := s.prepare(ctx, question)
	if err != nil || res != nil {
		return deref(res), err
	}

	var answer string
	cerr := completeWithRetry(ctx, s.backoff, func() error {
		var err error
		answer, err = s.completer.Complete(ctx, req)
		return err
	})

	return s.finish(cerr, Result{Status: StatusSuccess, Answer: answer})
}

// AnswerStream runs the pipeline in streaming mode, forwarding each chunk to
// onChunk as the backend produces it. The returned Result only matters for
// non-success outcomes; on success the answer has already been delivered
// through the callback.
func (s *Service) AnswerStream(ctx context.Context, question string, onChunk func(chunk string) error) (Result, error) {
	req, res, err := s.prepare(ctx, question)
	if err != nil || res != nil {
		return deref(res), err
	}

	cerr := completeWithRetry(ctx, s.backoff, func() error {
		return s.completer.CompleteStream(ctx, req, onChunk)
	})

	return s.finish(cerr, Result{Status: StatusSuccess})
}

// prepare covers the shared front half of both modes: validation, embedding
// and retrieval. It returns either the completion request to run, or an
// early Result (embedding failure), or an input error.
func (s *Service) prepare(ctx context.Context, question string) (CompletionRequest, *Result, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return CompletionRequest{}, nil, ErrEmptyQuestion
	}

	vector, err := s.embedder.Embed(ctx, q)
	if err != nil {
		log.Printf("rag: embedding failed: %v", err)
		return CompletionRequest{}, &Result{Status: StatusError, Message: "embedding failed"}, nil
	}

	passages, err := s.retriever.Search(ctx, vector, s.threshold, s.limit)
	if err != nil {
		// Busca indisponível não derruba a resposta: segue sem contexto.
		log.Printf("rag: vector search failed, continuing without context: %v", err)
		passages = nil
	}

	contextBlock := AssembleContext(passages)

	return CompletionRequest{
		System:   buildSystemInstruction(contextBlock, detectLang(q)),
		Question: q,
	}, nil, nil
}

func (s *Service) finish(err error, success Result) (Result, error) {
	switch {
	case err == nil:
		return success, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Result{}, err
	case errors.Is(err, ErrModelLoading):
		return Result{
			Status:            StatusLoading,
			RetryAfterSeconds: int(coldStartBackoff / time.Second),
		}, nil
	default:
		log.Printf("rag: completion failed: %v", err)
		var cerr *CompletionError
		if errors.As(err, &cerr) {
			return Result{Status: StatusError, Message: cerr.Error()}, nil
		}
		return Result{Status: StatusError, Message: "completion failed"}, nil
	}
}

func deref(r *Result) Result {
	if r == nil {
		return Result{}
	}
	return *r
}

func buildSystemInstruction(contextBlock, language string) string {
	var sys strings.Builder
	sys.WriteString("You are a payroll assistant. ")
	sys.WriteString("Answer ONLY based on the context below. ")
	sys.WriteString("If the context does not contain the answer, say you don't know. ")
	sys.WriteString("Do not invent amounts, dates or policy details. ")
	sys.WriteString("Reply in ")
	sys.WriteString(language)
	sys.WriteString(".\n\nContext:\n")
	sys.WriteString(contextBlock)
	return sys.String()
}

func detectLang(s string) string {
	info := wl.Detect(s)
	switch info.Lang {
	case wl.Por:
		return "Portuguese"
	case wl.Spa:
		return "Spanish"
	default:
		return "English"
	}
}
