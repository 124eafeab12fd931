package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jyotish-ai/server/internal/core"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	require.Equal(t, "openai", cfg.LLM.Provider)
	require.Equal(t, "gemini", cfg.Embedding.Provider)
	require.Equal(t, "admin123", cfg.Auth.AppPassword)
	require.Equal(t, "vedic-astro-bot", cfg.Geocoder.UserAgent)
	require.Equal(t, 3, cfg.Geocoder.Attempts)
	require.Equal(t, "api_cache", cfg.Cache.KeyPrefix)
	require.Equal(t, 10, cfg.Conversation.Tools.MaxCalls)
	require.Equal(t, 1000, cfg.Ingest.ChunkSize)
	require.Equal(t, 100, cfg.Ingest.ChunkOverlap)
	require.Equal(t, core.Development, cfg.Env())

	ttl, err := cfg.ConversationTTL()
	require.NoError(t, err)
	require.Equal(t, "720h0m0s", ttl.String())
}

func TestValidateServe(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "google")
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Redis.URL = ""
	cfg.LLM.GoogleAPIKey = ""
	cfg.Astro.APIKey = ""

	err = cfg.Validate(CommandServe)
	require.True(t, IsMissing(err))
	var mc *MissingConfigError
	require.ErrorAs(t, err, &mc)
	require.Equal(t, []string{"REDIS_URL", "GOOGLE_API_KEY", "FREE_ASTROLOGY_API_KEY"}, mc.Fields)

	cfg.Redis.URL = "redis://localhost:6379"
	cfg.LLM.GoogleAPIKey = "g"
	cfg.Astro.APIKey = "a"
	require.NoError(t, cfg.Validate(CommandServe))

	cfg.Postgres.DSN = "postgres://localhost/jyotish"
	cfg.Embedding.Provider = "openai"
	err = cfg.Validate(CommandServe)
	require.ErrorAs(t, err, &mc)
	require.Equal(t, []string{"OPENAI_API_KEY"}, mc.Fields)
}

func TestValidateIngestAndSetPassword(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Postgres.DSN = ""
	cfg.Redis.URL = ""
	cfg.LLM.GoogleAPIKey = "g"

	err = cfg.Validate(CommandIngest)
	var mc *MissingConfigError
	require.ErrorAs(t, err, &mc)
	require.Equal(t, []string{"POSTGRES_DSN"}, mc.Fields)

	cfg.Ingest.ChunkOverlap = cfg.Ingest.ChunkSize
	cfg.Postgres.DSN = "postgres://localhost/jyotish"
	err = cfg.Validate(CommandIngest)
	require.ErrorAs(t, err, &mc)
	require.Equal(t, []string{"INGEST_CHUNK_SIZE/INGEST_CHUNK_OVERLAP"}, mc.Fields)

	require.True(t, IsMissing(cfg.Validate(CommandSetPassword)))
	cfg.Redis.URL = "redis://localhost:6379"
	require.NoError(t, cfg.Validate(CommandSetPassword))
}
