package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// Searcher is satisfied by *knowledge.Searcher.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) []string
}

type SearchInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// searchTool returns plain text rather than JSON.
type searchTool struct {
	searcher Searcher
	topK     int
}

func createSearchTool(searcher Searcher, topK int) tool.InvokableTool {
	return &searchTool{searcher: searcher, topK: topK}
}

func (t *searchTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolSearchBPHS,
		Desc: "Searches Brihat Parashara Hora Shastra (BPHS) for interpretation rules. Returns the most relevant passages as text.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "What to look up, e.g. 'Saturn in the tenth house career'.",
				Required: true,
			},
			"top_k": {
				Type: schema.Integer,
				Desc: "Number of passages to return (default 4, max 10).",
			},
		}),
	}, nil
}

func (t *searchTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var in SearchInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		// Treat unparseable arguments as the query text itself.
		in.Query = argumentsInJSON
	}
	topK := in.TopK
	if topK <= 0 {
		topK = t.topK
	}
	return strings.Join(t.searcher.Search(ctx, in.Query, topK), "\n\n"), nil
}
