package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	EmbeddingOllama = "ollama"
	EmbeddingOpenAI = "openai"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8000"`
	GinMode  string `env:"GIN_MODE" envDefault:"release"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"true"`

	LLM       LLMConfig
	Embedding EmbeddingConfig

	MongoTimeout  time.Duration `env:"MONGO_TIMEOUT" envDefault:"10s"`
	MongoPoolTTL  time.Duration `env:"MONGO_POOL_TTL" envDefault:"30m"`
	VectorTimeout time.Duration `env:"VECTOR_TIMEOUT" envDefault:"15s"`
	VectorDBPath  string        `env:"VECTOR_DB_PATH" envDefault:"./data/chroma"`

	SessionDBPath string        `env:"SESSION_DB_PATH" envDefault:"./data/sessions"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"336h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// Audit logging is disabled when empty.
	LogsURI string `env:"MONGO_LOGS_URI"`

	SchemaResults  int `env:"SCHEMA_RESULTS" envDefault:"15"`
	HistoryResults int `env:"HISTORY_RESULTS" envDefault:"5"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

type LLMConfig struct {
	APIKey      string        `env:"GROQ_API_KEY"`
	BaseURL     string        `env:"LLM_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	Model       string        `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	Temperature float32       `env:"LLM_TEMPERATURE" envDefault:"0.1"`
	MaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"1024"`
	Timeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
}

type EmbeddingConfig struct {
	Provider string `env:"EMBEDDING_PROVIDER" envDefault:"ollama"`
	Model    string `env:"EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
	BaseURL  string `env:"EMBEDDING_BASE_URL"`
	APIKey   string `env:"EMBEDDING_API_KEY"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Embedding.Provider = strings.ToLower(strings.TrimSpace(c.Embedding.Provider))
	switch c.Embedding.Provider {
	case EmbeddingOllama, EmbeddingOpenAI:
	default:
		return fmt.Errorf("unknown embedding provider: %s", c.Embedding.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.SchemaResults <= 0 || c.HistoryResults < 0 {
		return fmt.Errorf("invalid retrieval sizes: schema=%d history=%d", c.SchemaResults, c.HistoryResults)
	}
	for _, d := range []time.Duration{c.MongoTimeout, c.VectorTimeout, c.LLM.Timeout} {
		if d <= 0 {
			return fmt.Errorf("timeouts must be positive")
		}
	}
	return nil
}
