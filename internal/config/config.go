package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"docs-query/internal/models"
)

const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"

	// legacy variable name, still honoured when LLM_API_KEY is unset
	geminiKeyEnv = "GEMINI_API_KEY"
)

type Config struct {
	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`
	Docs   DocsConfig   `yaml:"docs" envPrefix:"DOCS_"`
	RAG    RAGConfig    `yaml:"rag" envPrefix:"RAG_"`
	Cache  CacheConfig  `yaml:"cache" envPrefix:"CACHE_"`
	LLM    LLMConfig    `yaml:"llm" envPrefix:"LLM_"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type DocsConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size" env:"CHUNK_SIZE"`
	ChunkOverlap int    `yaml:"chunk_overlap" env:"CHUNK_OVERLAP"`
	Separator    string `yaml:"separator" env:"SEPARATOR"`
}

// CacheConfig controls the opt-in per-file extraction memo. Off by default:
// every request then reads the whole folder again.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	TTL     time.Duration `yaml:"ttl" env:"TTL"`
}

type LLMConfig struct {
	Provider string        `yaml:"provider" env:"PROVIDER"`
	Model    string        `yaml:"model" env:"MODEL"`
	BaseURL  string        `yaml:"base_url" env:"BASE_URL"`
	Key      string        `yaml:"api_key" env:"API_KEY"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Retry    RetryConfig   `yaml:"retry" envPrefix:"RETRY_"`
}

type RetryConfig struct {
	Attempts uint          `yaml:"attempts" env:"ATTEMPTS"`
	Delay    time.Duration `yaml:"delay" env:"DELAY"`
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
		},
		Docs: DocsConfig{
			Dir: models.DefaultDocsDir,
		},
		RAG: RAGConfig{
			ChunkSize:    models.DefaultChunkSize,
			ChunkOverlap: models.DefaultChunkOverlap,
			Separator:    models.DefaultSeparator,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     10 * time.Minute,
		},
		LLM: LLMConfig{
			Provider: ProviderGoogleAI,
			Model:    models.DefaultModel,
			Timeout:  60 * time.Second,
			Retry: RetryConfig{
				Attempts: 1,
				Delay:    500 * time.Millisecond,
				MaxDelay: 5 * time.Second,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// LoadConfig layers the YAML file at path, any env files and the process
// environment over Default. A missing YAML or env file is not an error.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warn().Str("path", path).Msg("Config file not found, using defaults and environment")
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			log.Debug().Str("file", f).Err(err).Msg("Env file not loaded")
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.LLM.Key == "" {
		cfg.LLM.Key = os.Getenv(geminiKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.LLM.Key == "" {
		return fmt.Errorf("%w: set %s or LLM_API_KEY", models.ErrMissingAPIKey, geminiKeyEnv)
	}
	switch c.LLM.Provider {
	case ProviderGoogleAI, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, %d), got %d", c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	}
	if c.Docs.Dir == "" {
		return errors.New("docs.dir is required")
	}
	return nil
}

// Addr is the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
