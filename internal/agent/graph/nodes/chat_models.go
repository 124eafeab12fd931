package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/jyotish-ai/server/internal/agent/model"
	logx "github.com/jyotish-ai/server/pkg/logger"
)

const (
	ProviderGoogle  = "google"
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

var defaultModels = map[string]string{
	ProviderGoogle:  "gemini-2.5-flash",
	ProviderOpenAI:  "gpt-4o-mini",
	ProviderBedrock: "anthropic.claude-3-5-sonnet-20240620-v1:0",
}

// ChatModel is the agent model with tools already bound.
type ChatModel struct {
	Model     einomodel.ToolCallingChatModel
	ModelName string
}

// ModelName returns the configured model, or the provider default.
func ModelName(cfg model.LLMConfig) string {
	if m := strings.TrimSpace(cfg.Model); m != "" {
		return m
	}
	return defaultModels[strings.ToLower(strings.TrimSpace(cfg.Provider))]
}

// NewChatModel creates the provider's chat model and binds the agent tools to it.
func NewChatModel(ctx context.Context, cfg model.LLMConfig, toolInfos []*schema.ToolInfo) (*ChatModel, error) {
	name := ModelName(cfg)
	base, err := newProviderModel(ctx, cfg, name)
	if err != nil {
		logx.Error().Err(err).Str("provider", cfg.Provider).Msg("Error creating chat model")
		return nil, err
	}

	bound, err := base.WithTools(toolInfos)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}

	logx.Debug().Str("provider", cfg.Provider).Str("model", name).Int("tools", len(toolInfos)).Msg("Successfully bound tools to chat model")
	return &ChatModel{Model: bound, ModelName: name}, nil
}

func newProviderModel(ctx context.Context, cfg model.LLMConfig, name string) (einomodel.ToolCallingChatModel, error) {
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGoogle:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GoogleAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating Gemini client: %w", err)
		}
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       name,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
			ThinkingConfig: &genai.ThinkingConfig{
				IncludeThoughts: false,
				ThinkingBudget:  genai.Ptr(int32(2000)),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("error creating Gemini model: %w", err)
		}
		return cm, nil

	case ProviderOpenAI:
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       name,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating OpenAI model: %w", err)
		}
		return cm, nil

	case ProviderBedrock:
		// Credentials come from the default AWS chain.
		cm, err := claude.NewChatModel(ctx, &claude.Config{
			ByBedrock:   true,
			Region:      cfg.AWSRegion,
			Model:       name,
			MaxTokens:   maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating Bedrock model: %w", err)
		}
		return cm, nil
	}
	return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
}
