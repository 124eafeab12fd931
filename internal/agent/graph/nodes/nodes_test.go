package nodes

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/jyotish-ai/server/internal/agent/model"
)

func TestFillToolCallIDsMatchesByPosition(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("career and marriage?"),
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{
				{ID: "call_1", Function: schema.FunctionCall{Name: "get_d10_chart"}},
				{ID: "call_2", Function: schema.FunctionCall{Name: "get_d9_chart"}},
				{ID: "call_3", Function: schema.FunctionCall{Name: "search_bphs"}},
			},
		},
	}
	in := []*schema.Message{
		{Role: schema.Tool, Content: "d10"},
		{Role: schema.Tool, Content: "d9", ToolCallID: "call_2"},
		{Role: schema.Tool, Content: "bphs"},
	}

	fillToolCallIDs(in, history)
	require.Equal(t, "call_1", in[0].ToolCallID)
	require.Equal(t, "call_2", in[1].ToolCallID)
	require.Equal(t, "call_3", in[2].ToolCallID)
}

func TestFillToolCallIDsWithoutAssistantCalls(t *testing.T) {
	in := []*schema.Message{{Role: schema.Tool, Content: "orphan"}}
	fillToolCallIDs(in, []*schema.Message{schema.UserMessage("hi")})
	require.Empty(t, in[0].ToolCallID)
}

func TestChatModelPreHandlerRepairsParallelToolResults(t *testing.T) {
	state := &model.AppState{History: []*schema.Message{{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "call_1", Function: schema.FunctionCall{Name: "get_d10_chart"}},
			{ID: "call_2", Function: schema.FunctionCall{Name: "get_d9_chart"}},
		},
	}}}
	in := []*schema.Message{
		{Role: schema.Tool, Content: "d10"},
		{Role: schema.Tool, Content: "d9"},
	}

	out, err := NewAgentChatModelPreHandler(5)(context.Background(), in, state)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "call_1", out[1].ToolCallID)
	require.Equal(t, "call_2", out[2].ToolCallID)
}

func TestToolBudget(t *testing.T) {
	require.Equal(t, DefaultMaxToolCalls, resolveToolBudget(0))
	require.Equal(t, 3, resolveToolBudget(3))

	state := &model.AppState{}
	require.False(t, spendToolRound(state, 2))
	require.False(t, markBudgetSpent(state, 2))
	require.False(t, spendToolRound(state, 2))

	require.True(t, markBudgetSpent(state, 2))
	require.True(t, state.ToolCallLimitReached)
	require.False(t, markBudgetSpent(state, 2))

	require.True(t, spendToolRound(state, 2))
	require.Equal(t, 3, state.ToolCallCount)
}
