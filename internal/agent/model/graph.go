package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-invocation state for the agent graph.
// It is registered via compose.WithGenLocalState and is only read or written
// inside Eino state handlers, which serialise access.
type AppState struct {
	ConversationID       string
	Profile              Profile
	History              []*schema.Message // mutated only inside Eino state handlers
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int // synthesises tool_call_id when the provider omits one

	// Accumulated LLM cost (USD) across model invocations for this query
	TotalCostUSD float64
}

// QueryInput is one user turn handed to the agent.
type QueryInput struct {
	ConversationID string  `json:"conversation_id"`
	Profile        Profile `json:"profile"`
	Query          string  `json:"query"`
}

// ComposeUserMessage prefixes the question with the session's birth details.
func ComposeUserMessage(p Profile, question string) string {
	return "DOB: " + p.DOB + "\nTime: " + p.TOB + "\nCity: " + p.City + "\n\nQuestion: " + question
}
