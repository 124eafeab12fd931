package knowledge

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

var defaultSeparators = []string{"\n\n", "\n", " "}

// Splitter breaks page text into chunks of at most size runes, preferring
// paragraph, then line, then word boundaries, with overlap runes carried
// between neighbouring chunks.
type Splitter struct {
	transformer document.Transformer
}

func NewSplitter(ctx context.Context, size, overlap int) (*Splitter, error) {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	t, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:   size,
		OverlapSize: overlap,
		Separators:  defaultSeparators,
		LenFunc:     utf8.RuneCountInString,
		// Separators stay attached to the preceding piece so joined chunks
		// reproduce the source text.
		KeepType: recursive.KeepTypeEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("create recursive splitter: %w", err)
	}
	return &Splitter{transformer: t}, nil
}

// Split returns the non-empty, whitespace-trimmed chunks of text.
func (s *Splitter) Split(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	docs, err := s.transformer.Transform(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if c := strings.TrimSpace(d.Content); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
