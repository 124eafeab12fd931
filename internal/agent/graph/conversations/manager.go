package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/jyotish-ai/server/internal/agent/model"
)

const defaultContextTurns = 40

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	contextTurns     int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	turns := config.ContextTurns
	if turns <= 0 {
		turns = defaultContextTurns
	}
	return &MessagesManager{
		conversationRepo: conversationRepo,
		contextTurns:     turns,
	}
}

// SaveUserMessage appends the composed user turn to the durable log.
func (cm *MessagesManager) SaveUserMessage(ctx context.Context, conversationID string, content string) error {
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(content))
}

// BuildAgentContext returns the system prompt followed by the most recent
// user and assistant turns. Tool traffic is replayed only within one invocation.
func (cm *MessagesManager) BuildAgentContext(ctx context.Context, conversationID string, systemPrompt string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	dialogue := make([]*schema.Message, 0, len(history.Messages))
	for _, msg := range history.Messages {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			dialogue = append(dialogue, schema.UserMessage(msg.Content))
		case schema.Assistant:
			if len(msg.ToolCalls) > 0 {
				continue
			}
			dialogue = append(dialogue, schema.AssistantMessage(msg.Content, nil))
		}
	}

	messages := []*schema.Message{schema.SystemMessage(systemPrompt)}
	return append(messages, trimTail(dialogue, cm.contextTurns)...), nil
}

func (cm *MessagesManager) SaveResponse(ctx context.Context, conversationID string, content string) error {
	assistantMsg := schema.AssistantMessage(content, nil)
	return cm.conversationRepo.AddMessage(ctx, conversationID, assistantMsg)
}

// SaveToolOutputs appends tool results so the history view can attach them to the next answer.
func (cm *MessagesManager) SaveToolOutputs(ctx context.Context, conversationID string, outputs []*schema.Message) error {
	for _, msg := range outputs {
		if msg == nil || msg.Role != schema.Tool {
			continue
		}
		if err := cm.conversationRepo.AddMessage(ctx, conversationID, msg); err != nil {
			return err
		}
	}
	return nil
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
