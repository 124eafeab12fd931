package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jyotish-ai/server/internal/agent/graph"
	"github.com/jyotish-ai/server/internal/agent/repo"
	"github.com/jyotish-ai/server/internal/agent/session"
	"github.com/jyotish-ai/server/internal/astro"
	"github.com/jyotish-ai/server/internal/astro/cache"
	"github.com/jyotish-ai/server/internal/astro/chart"
	"github.com/jyotish-ai/server/internal/astro/geo"
	"github.com/jyotish-ai/server/internal/astro/normalize"
	"github.com/jyotish-ai/server/internal/auth"
	"github.com/jyotish-ai/server/internal/config"
	"github.com/jyotish-ai/server/internal/httpapi"
	"github.com/jyotish-ai/server/internal/knowledge"
	logx "github.com/jyotish-ai/server/pkg/logger"
)

func newServeCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(config.CommandServe, *logLevel)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.AppConfig) error {
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()
	logx.Info().Msg("Connected to Redis successfully")

	ttl, err := cfg.ConversationTTL()
	if err != nil {
		return err
	}
	conversations := repo.NewRedisConversationRepository(rdb, ttl)

	charts, err := buildChartService(cfg, rdb)
	if err != nil {
		return err
	}

	searcher, closeIndex, err := buildSearcher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIndex()

	agentCfg := graph.Config{
		LLM:              cfg.LLM,
		Conversation:     cfg.Conversation,
		ConversationRepo: conversations,
		Charts:           charts,
		Searcher:         searcher,
		SearchTopK:       cfg.Knowledge.TopK,
	}
	// Fail at startup rather than on the first question.
	if _, err := graph.BuildAgentGraph(ctx, agentCfg); err != nil {
		return fmt.Errorf("build agent graph: %w", err)
	}
	factory := func(ctx context.Context, sessionID string) (graph.Runner, error) {
		logx.Debug().Str("session_id", sessionID).Msg("creating agent")
		return graph.BuildAgentGraph(ctx, agentCfg)
	}

	gate := auth.NewGate(repo.NewRedisAppConfig(rdb), cfg.Auth.AppPassword)
	manager := session.NewManager(factory, conversations, gate)
	srv := httpapi.NewRouter(cfg.HTTP, httpapi.NewHandler(manager))

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildChartService(cfg config.AppConfig, rdb redis.Cmdable) (*astro.Service, error) {
	zones, err := geo.NewTZFLocator()
	if err != nil {
		return nil, fmt.Errorf("load timezone finder: %w", err)
	}
	geocoder := geo.NewNominatim(
		cfg.Geocoder.BaseURL,
		cfg.Geocoder.UserAgent,
		time.Duration(cfg.Geocoder.TimeoutSeconds)*time.Second,
	)
	resolver := geo.NewResolver(cfg.Geocoder, geocoder, zones)

	table := chart.DefaultTable()
	return astro.NewService(
		normalize.New(resolver, table),
		cache.New(repo.NewRedisChartCache(rdb, cfg.Cache.KeyPrefix)),
		chart.NewClient(cfg.Astro, table),
		table,
	), nil
}

// buildSearcher opens the pgvector index when Postgres is configured; without
// it every search answers with the no-passages sentinel.
func buildSearcher(ctx context.Context, cfg config.AppConfig) (*knowledge.Searcher, func(), error) {
	if !cfg.Postgres.Enabled() {
		logx.Warn().Msg("POSTGRES_DSN not set; BPHS search disabled")
		return knowledge.NewUnavailableSearcher(), func() {}, nil
	}

	embedder, err := knowledge.NewEmbedder(ctx, cfg.Embedding, cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}
	pool, err := cfg.Postgres.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	index := knowledge.NewPGVectorIndex(pool, cfg.Knowledge.Table, cfg.Knowledge.Namespace, embedder.Dimension())
	if err := index.CheckDimension(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return knowledge.NewSearcher(embedder, index, cfg.Knowledge.TopK), pool.Close, nil
}
