package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// bedrockInvoker is the subset of *bedrockruntime.Client used here.
type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// BedrockEmbedder calls Titan text embeddings, one text per request.
type BedrockEmbedder struct {
	client    bedrockInvoker
	model     string
	dimension int
}

func NewBedrockEmbedder(ctx context.Context, region, model string, dimension int) (*BedrockEmbedder, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &BedrockEmbedder{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		model:     model,
		dimension: dimension,
	}, nil
}

func (e *BedrockEmbedder) Dimension() int { return e.dimension }

func (e *BedrockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		body, err := json.Marshal(titanRequest{InputText: text, Dimensions: e.dimension, Normalize: true})
		if err != nil {
			return nil, fmt.Errorf("encode titan request: %w", err)
		}
		out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(e.model),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        body,
		})
		if err != nil {
			return nil, fmt.Errorf("bedrock invoke %s: %w", e.model, err)
		}
		var resp titanResponse
		if err := json.Unmarshal(out.Body, &resp); err != nil {
			return nil, fmt.Errorf("decode titan response: %w", err)
		}
		vectors = append(vectors, resp.Embedding)
	}
	if err := checkDimensions(vectors, e.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}

var _ Embedder = (*BedrockEmbedder)(nil)
