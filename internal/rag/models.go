package rag

// Passage
// Um trecho recuperado da base vetorial, já ordenado por similaridade
// pelo próprio store.
type Passage struct {
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// ChatRequest
// Payload da API /chat.
type ChatRequest struct {
	Question string `json:"question"`
	Stream   bool   `json:"stream,omitempty"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// Result é sempre uma das três formas: success+answer, loading+retryAfterSeconds
// ou error+message. Nunca uma mistura.
type Result struct {
	Status            Status `json:"status"`
	Answer            string `json:"answer,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
	Message           string `json:"message,omitempty"`
}

// CompletionRequest carrega o prompt estruturado enviado ao backend de completion.
type CompletionRequest struct {
	System   string
	Question string
}
