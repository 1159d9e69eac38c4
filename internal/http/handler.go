package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"payrollassist/internal/rag"
)

// ChatService is what the handler needs from the pipeline.
type ChatService interface {
	Answer(ctx context.Context, question string) (rag.Result, error)
	AnswerStream(ctx context.Context, question string, onChunk func(chunk string) error) (rag.Result, error)
}

type Handler struct {
	chat ChatService
}

func NewHandler(chat ChatService) *Handler {
	return &Handler{chat: chat}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// streamFragment is one NDJSON line of a streamed answer.
type streamFragment struct {
	Answer string `json:"answer"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req rag.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	// Covers the worst case: completion, one cold-start backoff, and the
	// retried completion.
	ctx, cancel := context.WithTimeout(r.Context(), 150*time.Second)
	defer cancel()

	reqID := uuid.NewString()[:8]
	log.Printf("[%s] chat question received (stream=%v)", reqID, req.Stream)

	if req.Stream {
		h.streamChat(ctx, w, reqID, req.Question)
		return
	}

	res, err := h.chat.Answer(ctx, req.Question)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Caller is gone or the deadline passed; nothing useful to write.
		log.Printf("[%s] chat aborted: %v", reqID, err)
		return
	}

	log.Printf("[%s] chat answered (status=%s)", reqID, res.Status)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (h *Handler) streamChat(ctx context.Context, w http.ResponseWriter, reqID, question string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	enc := json.NewEncoder(w)
	wrote := false

	res, err := h.chat.AnswerStream(ctx, question, func(chunk string) error {
		if err := enc.Encode(streamFragment{Answer: chunk}); err != nil {
			return err
		}
		flusher.Flush()
		wrote = true
		return nil
	})
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) && !wrote {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[%s] chat stream aborted: %v", reqID, err)
		return
	}

	// Non-success outcomes are delivered as one result object on its own
	// line, so the stream never just goes silent.
	if res.Status != rag.StatusSuccess {
		_ = enc.Encode(res)
		flusher.Flush()
	}
	log.Printf("[%s] chat stream finished (status=%s)", reqID, res.Status)
}
