package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jyotish-ai/server/internal/config"
	"github.com/jyotish-ai/server/internal/knowledge"
	logx "github.com/jyotish-ai/server/pkg/logger"
)

func newIngestCmd(logLevel *string) *cobra.Command {
	var file, source string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Split, embed and upsert a source text into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(config.CommandIngest, *logLevel)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if source == "" {
				source = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}
			pages, err := knowledge.LoadDocument(file)
			if err != nil {
				return err
			}

			embedder, err := knowledge.NewEmbedder(ctx, cfg.Embedding, cfg.LLM)
			if err != nil {
				return fmt.Errorf("create embedder: %w", err)
			}
			pool, err := cfg.Postgres.New(ctx)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			index := knowledge.NewPGVectorIndex(pool, cfg.Knowledge.Table, cfg.Knowledge.Namespace, embedder.Dimension())
			if err := index.EnsureSchema(ctx); err != nil {
				return err
			}

			ingester, err := knowledge.NewIngester(ctx, embedder, index, cfg.Knowledge.Namespace, cfg.Ingest)
			if err != nil {
				return err
			}
			res, err := ingester.Ingest(ctx, pages, source)
			if err != nil {
				return err
			}
			logx.Info().
				Str("source", source).
				Int("pages", res.Pages).
				Int("chunks", res.Chunks).
				Int("batches", res.Batches).
				Msg("Ingestion complete")
			fmt.Fprintf(cmd.OutOrStdout(), "ingested %d chunks from %d pages of %s\n", res.Chunks, res.Pages, source)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "data/BPHS.pdf", "PDF or plain-text document to ingest")
	cmd.Flags().StringVar(&source, "source", "", "source label stored with each chunk (default: file name)")
	return cmd
}
