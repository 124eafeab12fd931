package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/jyotish-ai/server/internal/core"
	logx "github.com/jyotish-ai/server/pkg/logger"
	pkgpostgres "github.com/jyotish-ai/server/pkg/postgres"
	pkgredis "github.com/jyotish-ai/server/pkg/redis"
)

// Command names the CLI entry point a configuration is validated for.
type Command string

const (
	CommandServe       Command = "serve"
	CommandIngest      Command = "ingest"
	CommandSetPassword Command = "set-password"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config

	// Providers
	LLM       model.LLMConfig
	Embedding model.EmbeddingConfig
	Astro     model.AstroConfig
	Geocoder  model.GeocoderConfig

	// Agent and storage
	Cache        model.CacheConfig
	Conversation model.ConversationConfig
	Knowledge    model.KnowledgeConfig
	Auth         model.AuthConfig
	HTTP         model.HTTPConfig
	Ingest       model.IngestConfig
}

// MissingConfigError lists required settings that are absent or invalid.
type MissingConfigError struct {
	Command Command
	Fields  []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("%s: missing or invalid configuration: %s", e.Command, strings.Join(e.Fields, ", "))
}

// IsMissing reports whether err is a configuration error.
func IsMissing(err error) bool {
	var mc *MissingConfigError
	return errors.As(err, &mc)
}

// Load reads .env when present and then the process environment.
func Load() (AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, &MissingConfigError{Command: "env", Fields: []string{err.Error()}}
	}
	return cfg, nil
}

// Env returns the parsed deployment environment.
func (c AppConfig) Env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

// ConversationTTL parses CONVERSATION_TTL; zero keeps logs forever.
func (c AppConfig) ConversationTTL() (time.Duration, error) {
	if strings.TrimSpace(c.Conversation.TTL) == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.Conversation.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", c.Conversation.TTL, err)
	}
	return ttl, nil
}

// Validate checks the settings the given command cannot run without.
func (c AppConfig) Validate(cmd Command) error {
	var missing []string
	switch cmd {
	case CommandServe:
		if !c.Redis.Enabled() {
			missing = append(missing, "REDIS_URL")
		}
		missing = append(missing, llmCredentials(c.LLM)...)
		if strings.TrimSpace(c.Astro.APIKey) == "" {
			missing = append(missing, "FREE_ASTROLOGY_API_KEY")
		}
		if _, err := c.ConversationTTL(); err != nil {
			missing = append(missing, "CONVERSATION_TTL")
		}
		if c.Postgres.Enabled() {
			missing = append(missing, embeddingCredentials(c.Embedding, c.LLM)...)
		}
	case CommandIngest:
		if !c.Postgres.Enabled() {
			missing = append(missing, "POSTGRES_DSN")
		}
		missing = append(missing, embeddingCredentials(c.Embedding, c.LLM)...)
		if c.Ingest.ChunkSize <= 0 || c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
			missing = append(missing, "INGEST_CHUNK_SIZE/INGEST_CHUNK_OVERLAP")
		}
	case CommandSetPassword:
		if !c.Redis.Enabled() {
			missing = append(missing, "REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if len(missing) > 0 {
		return &MissingConfigError{Command: cmd, Fields: missing}
	}
	return nil
}

func llmCredentials(cfg model.LLMConfig) []string {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "google":
		if cfg.GoogleAPIKey == "" {
			return []string{"GOOGLE_API_KEY"}
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return []string{"OPENAI_API_KEY"}
		}
	case "bedrock":
		if cfg.AWSRegion == "" {
			return []string{"AWS_REGION"}
		}
	default:
		return []string{"LLM_PROVIDER (openai|google|bedrock)"}
	}
	return nil
}

func embeddingCredentials(cfg model.EmbeddingConfig, creds model.LLMConfig) []string {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini":
		if creds.GoogleAPIKey == "" {
			return []string{"GOOGLE_API_KEY"}
		}
	case "openai":
		if creds.OpenAIAPIKey == "" {
			return []string{"OPENAI_API_KEY"}
		}
	case "bedrock":
		if creds.AWSRegion == "" {
			return []string{"AWS_REGION"}
		}
	default:
		return []string{"EMBEDDING_PROVIDER (openai|gemini|bedrock)"}
	}
	if cfg.Dimension < 0 {
		return []string{"EMBEDDING_DIMENSION"}
	}
	return nil
}
