package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/jyotish-ai/server/internal/agent/graph/conversations"
	"github.com/jyotish-ai/server/internal/agent/graph/nodes"
	"github.com/jyotish-ai/server/internal/agent/graph/observers"
	"github.com/jyotish-ai/server/internal/agent/graph/tools"
	"github.com/jyotish-ai/server/internal/agent/model"
	logx "github.com/jyotish-ai/server/pkg/logger"
)

// Runner executes the compiled graph for one user turn and returns the answer text.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
}

// Config holds everything needed to compose the agent graph end-to-end.
type Config struct {
	LLM              model.LLMConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Charts           tools.ChartService
	Searcher         tools.Searcher
	SearchTopK       int
}

// GraphConfig holds the built components the graph is assembled from.
type GraphConfig struct {
	ChatModel       *nodes.ChatModel
	Tools           []tool.BaseTool
	MessagesManager *conversations.MessagesManager
	ChartCodes      []string
	ToolMaxCalls    int
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	if total, ok := out.Extra["usage_cost_total_usd"].(float64); ok {
		logx.Info().
			Str("conversation_id", in.ConversationID).
			Float64("total_cost_usd", total).
			Msg("Query cost")
	}
	return out.Content, nil
}

// BuildAgentGraph creates the tools and chat model, builds the graph, and returns a Runner.
func BuildAgentGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Charts == nil || cfg.Searcher == nil {
		return nil, fmt.Errorf("chart service and searcher are required")
	}

	agentTools := tools.GetAgentTools(cfg.Charts, cfg.Searcher, cfg.SearchTopK)
	toolInfos, err := tools.GetToolInfos(ctx, agentTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return nil, err
	}

	cm, err := nodes.NewChatModel(ctx, cfg.LLM, toolInfos)
	if err != nil {
		return nil, err
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModel:       cm,
		Tools:           agentTools,
		MessagesManager: conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation),
		ChartCodes:      cfg.Charts.Codes(),
		ToolMaxCalls:    cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Agent graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil || config.ChatModel.Model == nil {
		return nil, fmt.Errorf("chat model is not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.addNodes(ctx); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}
	return builder.compile(ctx)
}

func (b *GraphBuilder) addNodes(ctx context.Context) error {
	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               b.config.Tools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			return sanitizeArguments(name, arguments), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	steps := []error{
		b.graph.AddLambdaNode(nodes.NodeInputConverter,
			nodes.NewInputConverterNode(b.config.MessagesManager, b.config.ChartCodes),
			compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
		),
		b.graph.AddChatModelNode(nodes.NodeAgentChatModel,
			b.config.ChatModel.Model,
			compose.WithStatePreHandler(nodes.NewAgentChatModelPreHandler(b.config.ToolMaxCalls)),
			compose.WithStatePostHandler(nodes.NewAgentChatModelPostHandler(b.config.MessagesManager, b.config.ChatModel.ModelName)),
		),
		b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
			compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
			compose.WithStatePostHandler(nodes.NewToolExecutorPostHandler(b.config.MessagesManager)),
		),
	}
	for _, err := range steps {
		if err != nil {
			logx.Error().Err(err).Msg("Error adding node")
			return fmt.Errorf("error adding node: %w", err)
		}
	}
	return nil
}

func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeAgentChatModel},
		{nodes.NodeToolExecutor, nodes.NodeAgentChatModel},
	}
	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			compose.END:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeAgentChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Bound total steps so a model that keeps calling tools cannot loop forever.
	maxSteps := 10 + b.config.ToolMaxCalls*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

// sanitizeArguments trims and coerces model-produced arguments; it never fails.
func sanitizeArguments(name, arguments string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments
	}

	switch {
	case tools.IsChartTool(name):
		for _, key := range []string{"dob", "tob", "city", "chart_type"} {
			if v, ok := m[key]; ok {
				m[key] = coerceString(v)
			}
		}
	case name == tools.ToolSearchBPHS:
		if v, ok := m["query"]; ok {
			m["query"] = coerceString(v)
		}
		// top_k: number (optional, max 10)
		if v, ok := m["top_k"]; ok {
			switch vv := v.(type) {
			case float64:
				m["top_k"] = clampInt(int(vv), 1, 10)
			case string:
				if n, err := strconv.Atoi(strings.TrimSpace(vv)); err == nil {
					m["top_k"] = clampInt(n, 1, 10)
				} else {
					delete(m, "top_k")
				}
			default:
				delete(m, "top_k")
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return arguments
	}
	return string(b)
}

func coerceString(v any) string {
	switch vv := v.(type) {
	case string:
		return strings.TrimSpace(vv)
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
