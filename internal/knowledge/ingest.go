package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jyotish-ai/server/internal/agent/model"
	logx "github.com/jyotish-ai/server/pkg/logger"
	"github.com/rs/zerolog"
)

// IngestResult summarises one ingestion run.
type IngestResult struct {
	Pages   int
	Chunks  int
	Batches int
}

// Ingester splits, embeds and upserts a source document in paced batches.
type Ingester struct {
	embedder  Embedder
	index     VectorIndex
	splitter  *Splitter
	namespace string
	batchSize int
	pause     time.Duration
	attempts  int
	backoff   time.Duration
	log       zerolog.Logger
}

func NewIngester(ctx context.Context, embedder Embedder, index VectorIndex, namespace string, cfg model.IngestConfig) (*Ingester, error) {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 32
	}
	splitter, err := NewSplitter(ctx, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Ingester{
		embedder:  embedder,
		index:     index,
		splitter:  splitter,
		namespace: namespace,
		batchSize: batch,
		pause:     time.Duration(cfg.PauseMillis) * time.Millisecond,
		attempts:  3,
		backoff:   time.Second,
		log:       logx.Component("ingest"),
	}, nil
}

// WithRetry overrides the retry policy for batch operations.
func (in *Ingester) WithRetry(attempts int, base time.Duration) *Ingester {
	in.attempts = attempts
	in.backoff = base
	return in
}

// ChunkID is the deterministic record id that makes re-ingestion idempotent.
func ChunkID(namespace, source string, page, chunk int) string {
	return fmt.Sprintf("%s:%s:%d:%d", namespace, source, page, chunk)
}

// Chunk splits every page into records without embeddings.
func (in *Ingester) Chunk(ctx context.Context, pages []Page, source string) ([]model.ChunkRecord, error) {
	var records []model.ChunkRecord
	for _, p := range pages {
		chunks, err := in.splitter.Split(ctx, p.Text)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p.Number, err)
		}
		for i, text := range chunks {
			records = append(records, model.ChunkRecord{
				ID:        ChunkID(in.namespace, source, p.Number, i),
				Namespace: in.namespace,
				Source:    source,
				Page:      p.Number,
				Chunk:     i,
				Content:   text,
			})
		}
	}
	return records, nil
}

func (in *Ingester) Ingest(ctx context.Context, pages []Page, source string) (IngestResult, error) {
	if err := in.index.EnsureSchema(ctx); err != nil {
		return IngestResult{}, fmt.Errorf("prepare index: %w", err)
	}

	records, err := in.Chunk(ctx, pages, source)
	if err != nil {
		return IngestResult{}, err
	}
	result := IngestResult{Pages: len(pages), Chunks: len(records)}
	in.log.Info().Int("pages", len(pages)).Int("chunks", len(records)).Str("source", source).Msg("ingesting")

	for start := 0; start < len(records); start += in.batchSize {
		end := min(start+in.batchSize, len(records))
		batch := records[start:end]

		if err := in.retry(ctx, func() error { return in.embedBatch(ctx, batch) }); err != nil {
			return result, fmt.Errorf("embed batch %d: %w", result.Batches, err)
		}
		if err := in.retry(ctx, func() error { return in.index.Upsert(ctx, batch) }); err != nil {
			return result, fmt.Errorf("upsert batch %d: %w", result.Batches, err)
		}
		result.Batches++
		in.log.Debug().Int("batch", result.Batches).Int("upserted", end).Int("total", len(records)).Msg("batch upserted")

		if end < len(records) && in.pause > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(in.pause):
			}
		}
	}
	return result, nil
}

func (in *Ingester) embedBatch(ctx context.Context, batch []model.ChunkRecord) error {
	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = r.Content
	}
	vectors, err := in.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding result count mismatch: expected %d, got %d", len(batch), len(vectors))
	}
	if err := checkDimensions(vectors, in.embedder.Dimension()); err != nil {
		return err
	}
	for i := range batch {
		batch[i].Embedding = vectors[i]
	}
	return nil
}

// retry doubles the wait from the base delay; dimension mismatches abort at once.
func (in *Ingester) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = in.backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	wrapped := func() error {
		err := op()
		if errors.Is(err, ErrDimensionMismatch) {
			in.log.Error().Err(err).Msg("embedding dimension does not match index; aborting")
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		in.log.Warn().Err(err).Dur("retry_in", wait).Msg("batch operation failed; retrying")
	}
	attempts := in.attempts
	if attempts <= 0 {
		attempts = 1
	}
	return backoff.RetryNotify(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx), notify)
}
