package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/jyotish-ai/server/internal/agent/graph"
	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/jyotish-ai/server/internal/agent/repo"
	"github.com/jyotish-ai/server/internal/auth"
	errx "github.com/jyotish-ai/server/internal/core/error"
)

type runnerFunc func(ctx context.Context, in model.QueryInput) (string, error)

func (f runnerFunc) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	return f(ctx, in)
}

func newTestManager(t *testing.T, runner graph.Runner) (*Manager, *repo.MemoryConversationRepository, *int) {
	t.Helper()
	store := repo.NewMemoryConversationRepository()
	created := 0
	factory := func(context.Context, string) (graph.Runner, error) {
		created++
		return runner, nil
	}
	gate := auth.NewGate(repo.NewMemoryAppConfig(), "admin123")
	return NewManager(factory, store, gate), store, &created
}

func validStart() StartRequest {
	return StartRequest{Email: " a@b.c ", Password: "admin123", DOB: "1990/1/1", TOB: "6:00", City: " Kathmandu, Nepal "}
}

func TestStartNormalisesProfile(t *testing.T) {
	m, _, created := newTestManager(t, runnerFunc(func(context.Context, model.QueryInput) (string, error) { return "", nil }))

	sess, err := m.Start(context.Background(), validStart())
	require.NoError(t, err)
	require.Equal(t, "a@b.c", sess.ID)
	require.Equal(t, model.Profile{DOB: "1990-01-01", TOB: "06:00", City: "Kathmandu, Nepal"}, sess.Profile)
	require.Equal(t, 1, *created)

	_, ok := m.Get("a@b.c")
	require.True(t, ok)
}

func TestStartRejects(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	ctx := context.Background()

	req := validStart()
	req.Password = "wrong"
	_, err := m.Start(ctx, req)
	require.ErrorIs(t, err, ErrUnauthorized)

	req = validStart()
	req.City = "  "
	_, err = m.Start(ctx, req)
	require.Equal(t, http.StatusBadRequest, errx.StatusOf(err))

	req = validStart()
	req.DOB = "yesterday"
	_, err = m.Start(ctx, req)
	require.Equal(t, http.StatusBadRequest, errx.StatusOf(err))
}

func TestAskPassesProfileAndRecreatesAgent(t *testing.T) {
	var got model.QueryInput
	runner := runnerFunc(func(_ context.Context, in model.QueryInput) (string, error) {
		got = in
		return "Your tenth lord is strong.", nil
	})
	m, _, created := newTestManager(t, runner)
	ctx := context.Background()

	_, err := m.Start(ctx, validStart())
	require.NoError(t, err)

	// Simulate a lost agent handle.
	m.mu.Lock()
	m.sessions["a@b.c"].agent = nil
	m.mu.Unlock()

	answer, err := m.Ask(ctx, "a@b.c", "career?")
	require.NoError(t, err)
	require.Equal(t, "Your tenth lord is strong.", answer)
	require.Equal(t, 2, *created)
	require.Equal(t, "a@b.c", got.ConversationID)
	require.Equal(t, "1990-01-01", got.Profile.DOB)
	require.Equal(t, "career?", got.Query)

	_, err = m.Ask(ctx, "nobody", "career?")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAskAgentFailureCarriesRetryHint(t *testing.T) {
	runner := runnerFunc(func(context.Context, model.QueryInput) (string, error) {
		return "", errors.New("429 RESOURCE_EXHAUSTED: Please retry in 12.5s.")
	})
	m, _, _ := newTestManager(t, runner)
	ctx := context.Background()
	_, err := m.Start(ctx, validStart())
	require.NoError(t, err)

	_, err = m.Ask(ctx, "a@b.c", "career?")
	ae, ok := IsAgentError(err)
	require.True(t, ok)
	require.NotNil(t, ae.RetryAfterSeconds)
	require.InDelta(t, 12.5, *ae.RetryAfterSeconds, 1e-9)
}

func TestParseRetryHint(t *testing.T) {
	secs, ok := ParseRetryHint("rate limited, retry in 7s")
	require.True(t, ok)
	require.Equal(t, 7.0, secs)

	_, ok = ParseRetryHint("connection reset")
	require.False(t, ok)
}

func TestEndKeepsDurableLogUnlessPurged(t *testing.T) {
	m, store, _ := newTestManager(t, runnerFunc(func(context.Context, model.QueryInput) (string, error) { return "ok", nil }))
	ctx := context.Background()
	_, err := m.Start(ctx, validStart())
	require.NoError(t, err)
	require.NoError(t, store.AddMessage(ctx, "a@b.c", schema.UserMessage("hi")))

	require.NoError(t, m.End(ctx, "a@b.c", false))
	_, ok := m.Get("a@b.c")
	require.False(t, ok)
	n, _ := store.GetMessageCount(ctx, "a@b.c")
	require.Equal(t, 1, n)

	require.ErrorIs(t, m.End(ctx, "a@b.c", false), ErrNotFound)

	require.NoError(t, m.End(ctx, "a@b.c", true))
	n, _ = store.GetMessageCount(ctx, "a@b.c")
	require.Zero(t, n)
}

func TestRenderHistoryAttachesToolOutputs(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage("DOB: 1990-01-01\n\nQuestion: career?"),
		schema.AssistantMessage("", []schema.ToolCall{{ID: "c1"}}),
		schema.ToolMessage(`{"chart_type":"D10"}`, "c1"),
		schema.ToolMessage("Saturn in the tenth gives authority.", "c2"),
		schema.AssistantMessage("<thinking>check D10 lord</thinking>Saturn favours public work.", nil),
		schema.UserMessage("thanks"),
	}
	out := RenderHistory(msgs)
	require.Len(t, out, 3)

	final := out[1]
	require.Equal(t, "assistant", final.Role)
	require.Equal(t, "Saturn favours public work.", final.Content)
	require.Equal(t, []string{"check D10 lord"}, final.Thinking)
	require.Len(t, final.ToolOutputs, 2)
	_, isJSON := final.ToolOutputs[0].(json.RawMessage)
	require.True(t, isJSON)
	require.Equal(t, "Saturn in the tenth gives authority.", final.ToolOutputs[1])
	require.Equal(t, "thanks", out[2].Content)
}
