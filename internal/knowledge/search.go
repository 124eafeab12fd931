package knowledge

import (
	"context"
	"strings"

	"github.com/jyotish-ai/server/internal/agent/model"
	logx "github.com/jyotish-ai/server/pkg/logger"
	"github.com/rs/zerolog"
)

// NoPassagesMessage is returned verbatim whenever retrieval yields nothing.
const NoPassagesMessage = "No relevant passages found."

// Retriever answers nearest-neighbour queries; satisfied by every VectorIndex.
type Retriever interface {
	Query(ctx context.Context, vector []float32, topK int) ([]model.Passage, error)
}

// Searcher embeds a query and returns the text of the closest passages.
type Searcher struct {
	embedder    Embedder
	index       Retriever
	defaultTopK int
	log         zerolog.Logger
}

func NewSearcher(embedder Embedder, index Retriever, defaultTopK int) *Searcher {
	if defaultTopK <= 0 {
		defaultTopK = 4
	}
	return &Searcher{
		embedder:    embedder,
		index:       index,
		defaultTopK: defaultTopK,
		log:         logx.Component("knowledge"),
	}
}

// NewUnavailableSearcher answers every query with NoPassagesMessage; used
// when no vector index is configured.
func NewUnavailableSearcher() *Searcher {
	return &Searcher{defaultTopK: 4, log: logx.Component("knowledge")}
}

// Search always returns at least one string; failures and empty results both
// yield the NoPassagesMessage sentinel.
func (s *Searcher) Search(ctx context.Context, query string, topK int) []string {
	query = strings.TrimSpace(query)
	if query == "" || s.embedder == nil || s.index == nil {
		return []string{NoPassagesMessage}
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		s.log.Error().Err(err).Msg("embedding search query failed")
		return []string{NoPassagesMessage}
	}

	passages, err := s.index.Query(ctx, vectors[0], topK)
	if err != nil {
		s.log.Error().Err(err).Msg("vector index query failed")
		return []string{NoPassagesMessage}
	}

	out := make([]string, 0, len(passages))
	for _, p := range passages {
		if text := strings.TrimSpace(p.Content); text != "" {
			out = append(out, text)
		}
	}
	if len(out) == 0 {
		return []string{NoPassagesMessage}
	}
	s.log.Debug().Int("passages", len(out)).Msg("search completed")
	return out
}
