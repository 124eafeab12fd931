package nodes

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/jyotish-ai/server/internal/agent/model"
)

// DefaultMaxToolCalls is the per-question tool round budget when
// TOOL_MAX_CALLS is unset or not positive.
const DefaultMaxToolCalls = 10

func resolveToolBudget(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// markBudgetSpent flags the question once every tool round is used, so the
// next model call gets the wrap-up notice. True only on the call that flags it.
func markBudgetSpent(state *model.AppState, budget int) bool {
	if !state.ToolCallLimitReached && state.ToolCallCount >= resolveToolBudget(budget) {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// spendToolRound counts one chart or search round and reports whether it went
// over budget. The round still runs; the chat model is told to answer next.
func spendToolRound(state *model.AppState, budget int) bool {
	state.ToolCallCount++
	if state.ToolCallCount > resolveToolBudget(budget) {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// fillToolCallIDs gives each tool result without an id the id of the tool
// call at the same position in the latest assistant turn. The tools node
// emits results in call order.
func fillToolCallIDs(in, history []*schema.Message) {
	calls := latestToolCalls(history)
	pos := 0
	for _, msg := range in {
		if msg == nil || msg.Role != schema.Tool {
			continue
		}
		if strings.TrimSpace(msg.ToolCallID) == "" && pos < len(calls) {
			msg.ToolCallID = calls[pos].ID
		}
		pos++
	}
}

func latestToolCalls(history []*schema.Message) []schema.ToolCall {
	for i := len(history) - 1; i >= 0; i-- {
		if msg := history[i]; msg != nil && msg.Role == schema.Assistant && len(msg.ToolCalls) > 0 {
			return msg.ToolCalls
		}
	}
	return nil
}
