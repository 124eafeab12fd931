package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaiemb "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIEmbedder wraps the eino OpenAI embedding component for any
// OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	embedder  embedding.Embedder
	dimension int
}

func NewOpenAIEmbedder(ctx context.Context, apiKey, baseURL, model string, dimension int) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOpenAIBaseURL
	}
	format := openaiemb.EmbeddingEncodingFormatFloat
	cfg := &openaiemb.EmbeddingConfig{
		APIKey:         apiKey,
		BaseURL:        strings.TrimRight(baseURL, "/"),
		Model:          model,
		Timeout:        60 * time.Second,
		EncodingFormat: &format,
	}
	// Only the text-embedding-3 family accepts a dimensions override.
	if strings.HasPrefix(model, "text-embedding-3") {
		dim := dimension
		cfg.Dimensions = &dim
	}
	emb, err := openaiemb.NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}
	return &OpenAIEmbedder{embedder: emb, dimension: dimension}, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	raw, err := e.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("embedding result count mismatch: expected %d, got %d", len(texts), len(raw))
	}
	vectors := make([][]float32, len(raw))
	for i, v := range raw {
		vectors[i] = toFloat32(v)
	}
	if err := checkDimensions(vectors, e.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

var _ Embedder = (*OpenAIEmbedder)(nil)
