package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // text or json

	StoreDriver     string `env:"STORE_DRIVER" envDefault:"sqlite"` // sqlite or postgres
	StoreDSN        string `env:"STORE_DSN" envDefault:"data/runtime_analytics.db"`
	InsertChunkSize int    `env:"INSERT_CHUNK_SIZE" envDefault:"5000"`

	InboxDir         string `env:"INBOX_DIR" envDefault:"logs"`
	InboxPattern     string `env:"INBOX_PATTERN" envDefault:"*.txt"`
	ProcessedDirName string `env:"PROCESSED_DIR_NAME" envDefault:"processed"`

	CatalogPath string `env:"CATALOG_PATH"` // empty uses the embedded catalog

	EmbeddingEngine     string  `env:"EMBEDDING_ENGINE" envDefault:"hashing"` // hashing, ollama or genai
	EmbeddingDimensions int     `env:"EMBEDDING_DIMENSIONS" envDefault:"512"`
	OllamaEndpoint      string  `env:"OLLAMA_ENDPOINT" envDefault:"http://localhost:11434"`
	OllamaModel         string  `env:"OLLAMA_MODEL" envDefault:"embeddinggemma"`
	GenAIAPIKey         string  `env:"GENAI_API_KEY"`
	GenAIModel          string  `env:"GENAI_MODEL" envDefault:"gemini-embedding-001"`
	MatchMinScore       float64 `env:"MATCH_MIN_SCORE" envDefault:"0"`

	RedisURL string        `env:"REDIS_URL"` // empty uses the in-process cache
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9091"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"30s"`
	WatchInterval   time.Duration `env:"WATCH_INTERVAL" envDefault:"1m"`
	MaxBodySize     int64         `env:"MAX_BODY_SIZE" envDefault:"10485760"` // 10MB
	SSEHeartbeat    time.Duration `env:"SSE_HEARTBEAT" envDefault:"15s"`
	WatchRateLimit  float64       `env:"WATCH_RATE_LIMIT" envDefault:"0.2"` // ingest runs per second
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
