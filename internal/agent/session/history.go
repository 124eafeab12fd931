package session

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"
)

var thinkingPattern = regexp.MustCompile(`(?is)<thinking>(.*?)</thinking>`)

// RenderedMessage is one chat bubble. Tool outputs recorded before an
// assistant answer are attached to that answer instead of shown on their own.
type RenderedMessage struct {
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Thinking    []string `json:"thinking,omitempty"`
	ToolOutputs []any    `json:"tool_outputs,omitempty"`
}

// StripThinking removes <thinking> segments and returns them separately.
func StripThinking(text string) (string, []string) {
	var segments []string
	for _, m := range thinkingPattern.FindAllStringSubmatch(text, -1) {
		segments = append(segments, strings.TrimSpace(m[1]))
	}
	return strings.TrimSpace(thinkingPattern.ReplaceAllString(text, "")), segments
}

// RenderHistory converts the durable log into chat bubbles.
func RenderHistory(messages []*schema.Message) []RenderedMessage {
	out := make([]RenderedMessage, 0, len(messages))
	var toolNotes []any

	for _, msg := range messages {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.Tool:
			toolNotes = append(toolNotes, toolNote(msg.Content))
		case schema.User:
			if msg.Content != "" {
				out = append(out, RenderedMessage{Role: string(schema.User), Content: msg.Content})
			}
		case schema.Assistant:
			content, thinking := StripThinking(msg.Content)
			if content == "" && len(msg.ToolCalls) > 0 {
				continue
			}
			if r := strings.TrimSpace(msg.ReasoningContent); r != "" {
				thinking = append(thinking, r)
			}
			out = append(out, RenderedMessage{
				Role:        string(schema.Assistant),
				Content:     content,
				Thinking:    thinking,
				ToolOutputs: toolNotes,
			})
			toolNotes = nil
		default:
			out = append(out, RenderedMessage{Role: string(msg.Role), Content: msg.Content})
		}
	}
	return out
}

// toolNote keeps JSON outputs structured and everything else as text.
func toolNote(content string) any {
	trimmed := strings.TrimSpace(content)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return content
}
