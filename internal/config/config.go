package config

import (
	"fmt"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "DOCRAG"

const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

const (
	defaultHTTPEmbeddingModel   = "nomic-embed-text"
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`

	// Embedding provider
	EmbeddingProvider string        `envconfig:"EMBEDDING_PROVIDER" default:"http"`
	EmbeddingURL      string        `envconfig:"EMBEDDING_URL" default:"http://localhost:11434/api/embeddings"`
	EmbeddingModel    string        `envconfig:"EMBEDDING_MODEL"`
	EmbeddingFormat   string        `envconfig:"EMBEDDING_FORMAT" default:"ollama"`
	EmbeddingAPIKey   string        `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingDim      int           `envconfig:"EMBEDDING_DIM" default:"768"`
	EmbeddingReqDim   int           `envconfig:"EMBEDDING_REQUEST_DIM" default:"0"`
	EmbeddingRate     float64       `envconfig:"EMBEDDING_RATE" default:"0"`
	EmbeddingBurst    int           `envconfig:"EMBEDDING_BURST" default:"1"`
	EmbeddingTimeout  time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"60s"`
	EmbedConcurrency  int           `envconfig:"EMBED_CONCURRENCY" default:"1"`

	OpenAIAPIKey      string  `envconfig:"OPENAI_API_KEY"`
	GenerationModel   string  `envconfig:"GENERATION_MODEL"`
	GenerationBaseURL string  `envconfig:"GENERATION_BASE_URL"`
	GenerationTemp    float32 `envconfig:"GENERATION_TEMPERATURE" default:"0.2"`

	RedisURL      string        `envconfig:"REDIS_URL"`
	EmbedCacheTTL time.Duration `envconfig:"EMBED_CACHE_TTL" default:"24h"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docrag-sources"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1400"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	ReindexPollInterval time.Duration `envconfig:"REINDEX_POLL_INTERVAL" default:"10s"`

	UnidocLicenseKey string `envconfig:"UNIDOC_LICENSE_API_KEY"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.EmbeddingProvider {
	case ProviderHTTP, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.EmbeddingProvider)
	}
	if c.EmbeddingProvider == ProviderOpenAI && c.OpenAIAPIKey == "" {
		return fmt.Errorf("%s_OPENAI_API_KEY is required for the openai embedding provider", envPrefix)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dim must be positive, got %d", c.EmbeddingDim)
	}
	if c.EmbeddingDim > domain.MaxIndexedEmbeddingWidth {
		return fmt.Errorf("embedding dim %d exceeds the maximum indexable width %d", c.EmbeddingDim, domain.MaxIndexedEmbeddingWidth)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap cannot be negative, got %d", c.ChunkOverlap)
	}
	return nil
}

// EmbeddingModelName returns the configured model or the provider default.
func (c *Config) EmbeddingModelName() string {
	if c.EmbeddingModel != "" {
		return c.EmbeddingModel
	}
	if c.EmbeddingProvider == ProviderOpenAI {
		return defaultOpenAIEmbeddingModel
	}
	return defaultHTTPEmbeddingModel
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// TracesSampleRate samples every trace in development and a tenth elsewhere.
func (c *Config) TracesSampleRate() float64 {
	if c.Environment == "development" {
		return 1.0
	}
	return 0.1
}
