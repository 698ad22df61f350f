package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Providers the server and console can run against.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

type Config struct {
	Port        string `env:"PORT"        envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL"   envDefault:"info"`
	LogLevel    slog.Level

	LLMProvider     string `env:"LLM_PROVIDER"      envDefault:"mock"`
	ModelName       string `env:"MODEL_NAME"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	// OpenAIBaseURL points the openai provider at a compatible API such as Venice.
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OllamaURL     string `env:"OLLAMA_URL"      envDefault:"http://localhost:11434"`

	// RedisURL is host:port. Sessions live only in memory when it is empty.
	RedisURL   string        `env:"REDIS_URL"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	MaxTurns            int           `env:"MAX_TURNS"             envDefault:"5"`
	CollaboratorTimeout time.Duration `env:"COLLABORATOR_TIMEOUT"  envDefault:"60s"`
	CollaboratorRetries int           `env:"COLLABORATOR_RETRIES"  envDefault:"2"`
	EnableImages        bool          `env:"ENABLE_IMAGES"         envDefault:"false"`
	HistoryLimit        int           `env:"HISTORY_LIMIT"         envDefault:"6"`
	SaveDir             string        `env:"SAVE_DIR"              envDefault:"./saves"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads configuration from the environment without validating it, so
// callers can apply overrides first.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.SetProvider(cfg.LLMProvider)
	return cfg, nil
}

// SetProvider normalizes and sets the LLM provider.
func (c *Config) SetProvider(provider string) {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(provider))
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", c.LLMProvider)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %q", c.LLMProvider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.LLMProvider)
		}
	case ProviderOllama:
		if c.ModelName == "" {
			return fmt.Errorf("MODEL_NAME is required for provider %q", c.LLMProvider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("MAX_TURNS must be positive, got %d", c.MaxTurns)
	}
	if c.CollaboratorTimeout <= 0 {
		return fmt.Errorf("COLLABORATOR_TIMEOUT must be positive")
	}
	if c.CollaboratorRetries < 0 {
		return fmt.Errorf("COLLABORATOR_RETRIES cannot be negative")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
