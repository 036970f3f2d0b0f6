package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docrag/internal/domain"
)

type stubAskService struct {
	answer   domain.Answer
	err      error
	question string
	context  string
}

func (s *stubAskService) Ask(_ context.Context, question, callerContext string) (domain.Answer, error) {
	s.question = question
	s.context = callerContext
	if s.err != nil {
		return domain.Answer{}, s.err
	}
	return s.answer, nil
}

func newTestServer(t *testing.T, svc AskService) *Server {
	t.Helper()
	s, err := New(svc, zap.NewNop(), &Config{Host: "localhost", Port: 0})
	require.NoError(t, err)
	return s
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChatReturnsAnswerAndSources(t *testing.T) {
	svc := &stubAskService{answer: domain.Answer{
		Text:    "The retention period is 30 days.",
		Sources: []string{"policies/retention.md"},
	}}
	rec := postChat(t, newTestServer(t, svc), `{"question":"What is the retention period?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The retention period is 30 days.", resp.Answer)
	assert.Equal(t, []string{"policies/retention.md"}, resp.Sources)
	assert.Equal(t, "What is the retention period?", svc.question)
}

func TestChatPassesCallerContext(t *testing.T) {
	svc := &stubAskService{answer: domain.Answer{Text: "ok"}}
	rec := postChat(t, newTestServer(t, svc), `{"question":"q","context":"selected text"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "selected text", svc.context)
}

func TestChatEmptyQuestionRejected(t *testing.T) {
	svc := &stubAskService{}
	for _, body := range []string{`{"question":""}`, `{"question":"   "}`, `{}`} {
		rec := postChat(t, newTestServer(t, svc), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Empty(t, svc.question)
}

func TestChatOversizedQuestionRejected(t *testing.T) {
	svc := &stubAskService{}
	question := strings.Repeat("a", maxQuestionLen+1)
	rec := postChat(t, newTestServer(t, svc), `{"question":"`+question+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatMalformedBodyRejected(t *testing.T) {
	rec := postChat(t, newTestServer(t, &stubAskService{}), `{"question":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatServiceErrorIsInternal(t *testing.T) {
	svc := &stubAskService{err: &domain.RetrievalError{Err: errors.New("store unreachable")}}
	rec := postChat(t, newTestServer(t, svc), `{"question":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatSourcesNeverNull(t *testing.T) {
	svc := &stubAskService{answer: domain.Answer{Text: "no sources"}}
	rec := postChat(t, newTestServer(t, svc), `{"question":"q"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sources":[]`)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &stubAskService{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}
