package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrollassist/internal/rag"
)

type fakeChatService struct {
	result rag.Result
	err    error
	chunks []string

	gotQuestion string
}

func (f *fakeChatService) Answer(ctx context.Context, question string) (rag.Result, error) {
	f.gotQuestion = question
	if strings.TrimSpace(question) == "" {
		return rag.Result{}, rag.ErrEmptyQuestion
	}
	return f.result, f.err
}

func (f *fakeChatService) AnswerStream(ctx context.Context, question string, onChunk func(string) error) (rag.Result, error) {
	f.gotQuestion = question
	if strings.TrimSpace(question) == "" {
		return rag.Result{}, rag.ErrEmptyQuestion
	}
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return rag.Result{}, err
		}
	}
	return f.result, f.err
}

func doChat(t *testing.T, svc ChatService, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	return rec
}

func TestChat_BufferedSuccess(t *testing.T) {
	svc := &fakeChatService{result: rag.Result{Status: rag.StatusSuccess, Answer: "Your gross pay is $4000."}}

	rec := doChat(t, svc, `{"question":"What is my gross pay?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "What is my gross pay?", svc.gotQuestion)

	var res rag.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, rag.StatusSuccess, res.Status)
	assert.Equal(t, "Your gross pay is $4000.", res.Answer)
}

func TestChat_LoadingResultStaysHTTP200(t *testing.T) {
	svc := &fakeChatService{result: rag.Result{Status: rag.StatusLoading, RetryAfterSeconds: 15}}

	rec := doChat(t, svc, `{"question":"q"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var res rag.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, rag.StatusLoading, res.Status)
	assert.Equal(t, 15, res.RetryAfterSeconds)
}

func TestChat_InvalidJSONBody(t *testing.T) {
	rec := doChat(t, &fakeChatService{}, `{"question":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_EmptyQuestion(t *testing.T) {
	rec := doChat(t, &fakeChatService{}, `{"question":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_StreamDeliversNDJSONFragments(t *testing.T) {
	svc := &fakeChatService{
		chunks: []string{"Your gross ", "pay is $4000."},
		result: rag.Result{Status: rag.StatusSuccess},
	}

	rec := doChat(t, svc, `{"question":"What is my gross pay?","stream":true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)

	var frag streamFragment
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &frag))
	assert.Equal(t, "Your gross ", frag.Answer)
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &frag))
	assert.Equal(t, "pay is $4000.", frag.Answer)
}

func TestChat_StreamEndsWithLoadingResult(t *testing.T) {
	svc := &fakeChatService{
		result: rag.Result{Status: rag.StatusLoading, RetryAfterSeconds: 15},
	}

	rec := doChat(t, svc, `{"question":"q","stream":true}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var res rag.Result
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(rec.Body.String())), &res))
	assert.Equal(t, rag.StatusLoading, res.Status)
	assert.Equal(t, 15, res.RetryAfterSeconds)
}

func TestHealth(t *testing.T) {
	h := NewHandler(&fakeChatService{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
