package model

// ================ Config ================
type ConversationConfig struct {
	TTL   string `envconfig:"CONVERSATION_TTL" default:"720h"`
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"10"`
	}
	// ContextTurns bounds how many non-tool messages are replayed to the model.
	ContextTurns int `envconfig:"CONVERSATION_CONTEXT_TURNS" default:"40"`
}

type LLMConfig struct {
	Provider    string  `envconfig:"LLM_PROVIDER" default:"google"`
	Model       string  `envconfig:"LLM_MODEL"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.3"`

	GoogleAPIKey  string `envconfig:"GOOGLE_API_KEY"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	AWSRegion     string `envconfig:"AWS_REGION" default:"us-east-1"`
}

type EmbeddingConfig struct {
	Provider string `envconfig:"EMBEDDING_PROVIDER" default:"gemini"`
	Model    string `envconfig:"EMBEDDING_MODEL"`
	// Dimension overrides the provider default; 0 means use the default.
	Dimension int    `envconfig:"EMBEDDING_DIMENSION" default:"0"`
	BaseURL   string `envconfig:"EMBEDDING_BASE_URL"`
}

type AstroConfig struct {
	APIKey           string `envconfig:"FREE_ASTROLOGY_API_KEY"`
	BaseURL          string `envconfig:"FREE_ASTROLOGY_BASE_URL" default:"https://json.freeastrologyapi.com"`
	ObservationPoint string `envconfig:"ASTRO_OBSERVATION_POINT" default:"topocentric"`
	Ayanamsha        string `envconfig:"ASTRO_AYANAMSHA" default:"lahiri"`
	Language         string `envconfig:"ASTRO_LANGUAGE" default:"en"`
	TimeoutSeconds   int    `envconfig:"ASTRO_TIMEOUT_SECONDS" default:"30"`
}

type GeocoderConfig struct {
	BaseURL        string `envconfig:"GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent      string `envconfig:"GEOCODER_USER_AGENT" default:"vedic-astro-bot"`
	Attempts       int    `envconfig:"GEOCODER_ATTEMPTS" default:"3"`
	BackoffMillis  int    `envconfig:"GEOCODER_BACKOFF_MS" default:"1000"`
	TimeoutSeconds int    `envconfig:"GEOCODER_TIMEOUT_SECONDS" default:"10"`
}

type CacheConfig struct {
	KeyPrefix string `envconfig:"CACHE_KEY_PREFIX" default:"api_cache"`
}

type KnowledgeConfig struct {
	Namespace string `envconfig:"KNOWLEDGE_NAMESPACE" default:"bphs"`
	Table     string `envconfig:"KNOWLEDGE_TABLE" default:"knowledge_chunks"`
	TopK      int    `envconfig:"KNOWLEDGE_TOP_K" default:"4"`
}

type AuthConfig struct {
	AppPassword string `envconfig:"APP_PASSWORD" default:"admin123"`
}

type HTTPConfig struct {
	Addr                string `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeoutSeconds  int    `envconfig:"HTTP_READ_TIMEOUT_SECONDS" default:"15"`
	WriteTimeoutSeconds int    `envconfig:"HTTP_WRITE_TIMEOUT_SECONDS" default:"120"`
}

type IngestConfig struct {
	ChunkSize    int `envconfig:"INGEST_CHUNK_SIZE" default:"1000"`
	ChunkOverlap int `envconfig:"INGEST_CHUNK_OVERLAP" default:"100"`
	BatchSize    int `envconfig:"INGEST_BATCH_SIZE" default:"32"`
	PauseMillis  int `envconfig:"INGEST_PAUSE_MS" default:"250"`
}
