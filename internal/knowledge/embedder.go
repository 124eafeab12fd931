package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jyotish-ai/server/internal/agent/model"
)

// Embedder turns texts into fixed-width vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// ErrDimensionMismatch is a permanent failure: vectors of the wrong width
// would corrupt the index.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

type providerDefaults struct {
	model     string
	dimension int
}

var providers = map[string]providerDefaults{
	ProviderOpenAI:  {model: "text-embedding-3-small", dimension: 1536},
	ProviderGemini:  {model: "text-embedding-004", dimension: 768},
	ProviderBedrock: {model: "amazon.titan-embed-text-v2:0", dimension: 1024},
}

// ResolveDimension returns the configured override or the provider default.
func ResolveDimension(cfg model.EmbeddingConfig) (int, error) {
	p, ok := providers[strings.ToLower(cfg.Provider)]
	if !ok {
		return 0, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if cfg.Dimension < 0 {
		return 0, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.Dimension > 0 {
		return cfg.Dimension, nil
	}
	return p.dimension, nil
}

func resolveModel(cfg model.EmbeddingConfig) string {
	if strings.TrimSpace(cfg.Model) != "" {
		return strings.TrimSpace(cfg.Model)
	}
	return providers[strings.ToLower(cfg.Provider)].model
}

// NewEmbedder builds the embedder selected by EMBEDDING_PROVIDER. Credentials
// are shared with the chat model configuration.
func NewEmbedder(ctx context.Context, cfg model.EmbeddingConfig, creds model.LLMConfig) (Embedder, error) {
	dim, err := ResolveDimension(cfg)
	if err != nil {
		return nil, err
	}
	modelName := resolveModel(cfg)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = creds.OpenAIBaseURL
		}
		return NewOpenAIEmbedder(ctx, creds.OpenAIAPIKey, baseURL, modelName, dim)
	case ProviderGemini:
		return NewGeminiEmbedder(ctx, creds.GoogleAPIKey, cfg.BaseURL, modelName, dim)
	case ProviderBedrock:
		return NewBedrockEmbedder(ctx, creds.AWSRegion, modelName, dim)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// checkDimensions fails when any vector does not match want.
func checkDimensions(vectors [][]float32, want int) error {
	for i, v := range vectors {
		if len(v) != want {
			return fmt.Errorf("%w: vector %d has %d values, index expects %d", ErrDimensionMismatch, i, len(v), want)
		}
	}
	return nil
}
