package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/jyotish-ai/server/internal/agent/graph"
	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/jyotish-ai/server/internal/agent/repo"
	"github.com/jyotish-ai/server/internal/agent/session"
	"github.com/jyotish-ai/server/internal/auth"
)

type runnerFunc func(ctx context.Context, in model.QueryInput) (string, error)

func (f runnerFunc) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	return f(ctx, in)
}

func newServerUnderTest(t *testing.T, runner runnerFunc) (http.Handler, *repo.MemoryConversationRepository) {
	t.Helper()
	store := repo.NewMemoryConversationRepository()
	factory := func(context.Context, string) (graph.Runner, error) { return runner, nil }
	mgr := session.NewManager(factory, store, auth.NewGate(repo.NewMemoryAppConfig(), "admin123"))
	return NewEngine(NewHandler(mgr)), store
}

func perform(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const startBody = `{"email":"a@b.c","password":"admin123","dob":"1990-01-01","tob":"06:00","city":"Kathmandu, Nepal"}`

func TestHealthz(t *testing.T) {
	h, _ := newServerUnderTest(t, nil)
	rec := perform(h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSessionLifecycle(t *testing.T) {
	var store *repo.MemoryConversationRepository
	runner := func(ctx context.Context, in model.QueryInput) (string, error) {
		require.NoError(t, store.AddMessage(ctx, in.ConversationID, schema.UserMessage(model.ComposeUserMessage(in.Profile, in.Query))))
		require.NoError(t, store.AddMessage(ctx, in.ConversationID, schema.ToolMessage(`{"chart_type":"D10"}`, "c1")))
		require.NoError(t, store.AddMessage(ctx, in.ConversationID, schema.AssistantMessage("Strong tenth house.", nil)))
		return "Strong tenth house.", nil
	}
	h, s := newServerUnderTest(t, runner)
	store = s

	rec := perform(h, http.MethodPost, "/api/v1/sessions", startBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess model.ChatSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	require.Equal(t, "a@b.c", sess.ID)

	rec = perform(h, http.MethodPost, "/api/v1/sessions/a@b.c/messages", `{"question":"career?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"session_id":"a@b.c","answer":"Strong tenth house."}`, rec.Body.String())

	rec = perform(h, http.MethodGet, "/api/v1/sessions/a@b.c/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		Messages []session.RenderedMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist.Messages, 2)
	require.Equal(t, "assistant", hist.Messages[1].Role)
	require.Len(t, hist.Messages[1].ToolOutputs, 1)

	rec = perform(h, http.MethodDelete, "/api/v1/sessions/a@b.c?purge=true", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	n, _ := store.GetMessageCount(context.Background(), "a@b.c")
	require.Zero(t, n)

	rec = perform(h, http.MethodPost, "/api/v1/sessions/a@b.c/messages", `{"question":"again?"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"session not found"}`, rec.Body.String())
}

func TestStartSessionErrors(t *testing.T) {
	h, _ := newServerUnderTest(t, nil)

	rec := perform(h, http.MethodPost, "/api/v1/sessions", strings.Replace(startBody, "admin123", "nope", 1))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = perform(h, http.MethodPost, "/api/v1/sessions", `{"email":"a@b.c","password":"admin123"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Please fill in all fields."}`, rec.Body.String())

	rec = perform(h, http.MethodPost, "/api/v1/sessions", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskAgentFailureReturnsRetryHint(t *testing.T) {
	h, _ := newServerUnderTest(t, func(context.Context, model.QueryInput) (string, error) {
		return "", errors.New("quota exceeded, retry in 3.2s")
	})
	require.Equal(t, http.StatusCreated, perform(h, http.MethodPost, "/api/v1/sessions", startBody).Code)

	rec := perform(h, http.MethodPost, "/api/v1/sessions/a@b.c/messages", `{"question":"career?"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "4", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body["error"], "try again later")
	require.InDelta(t, 3.2, body["retry_after_seconds"], 1e-9)
}
