package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/jyotish-ai/server/internal/agent/graph/tools"
	"github.com/jyotish-ai/server/internal/agent/model"
)

//go:embed template/system_prompt.txt
var coreSystemPrompt string

// RenderSystem renders the agent system prompt for a session profile and triggers prompt callbacks.
func RenderSystem(ctx context.Context, profile model.Profile, codes []string) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coreSystemPrompt),
	)
	vars := map[string]any{
		"DOB":            orUnknown(profile.DOB),
		"TOB":            orUnknown(profile.TOB),
		"City":           orUnknown(profile.City),
		"Codes":          strings.Join(codes, ", "),
		"CareerTool":     tools.ToolD10Chart,
		"MarriageTool":   tools.ToolD9Chart,
		"GeneralTool":    tools.ToolD1Chart,
		"DivisionalTool": tools.ToolDivisionalChart,
		"SearchTool":     tools.ToolSearchBPHS,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
