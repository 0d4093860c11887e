// Package config provides configuration loading for scopegend.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables. Defaults are applied for anything unset.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/scopegen/internal/document"
)

// Config holds the complete scopegend configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Logging       LoggingConfig       `koanf:"logging"`
	Clarification ClarificationConfig `koanf:"clarification"`
	Scope         ScopeConfig         `koanf:"scope"`
	Gemini        ProviderConfig      `koanf:"gemini"`
	OpenAI        ProviderConfig      `koanf:"openai"`
	Groq          ProviderConfig      `koanf:"groq"`
	RAG           RAGConfig           `koanf:"rag"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ClarificationConfig holds the clarification gate settings.
type ClarificationConfig struct {
	MinLength    int `koanf:"min_length"`
	TimeoutHours int `koanf:"timeout_hours"`
}

// ScopeConfig selects the generation strategy.
type ScopeConfig struct {
	Strategy string `koanf:"strategy"`
}

// ProviderConfig holds one LLM provider's connection settings. A
// provider with an empty API key is treated as absent.
type ProviderConfig struct {
	APIKey  Secret `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// RAGConfig holds few-shot example retrieval settings. Retrieval is
// disabled when InputDir is empty.
type RAGConfig struct {
	InputDir  string `koanf:"input_dir"`
	OutputDir string `koanf:"output_dir"`
	TopK      int    `koanf:"top_k"`
	Model     string `koanf:"model"`
	CacheDir  string `koanf:"cache_dir"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Clarification.MinLength == 0 {
		cfg.Clarification.MinLength = 500
	}
	if cfg.Clarification.TimeoutHours == 0 {
		cfg.Clarification.TimeoutHours = 24
	}

	if cfg.Scope.Strategy == "" {
		cfg.Scope.Strategy = string(document.StrategyHeuristic)
	}

	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 3
	}
	if cfg.RAG.Model == "" {
		cfg.RAG.Model = "BAAI/bge-small-en-v1.5"
	}
	if cfg.RAG.CacheDir == "" {
		cfg.RAG.CacheDir = "local_cache"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}

	if c.Clarification.MinLength < 0 {
		return errors.New("clarification min_length cannot be negative")
	}
	if c.Clarification.TimeoutHours < 1 {
		return errors.New("clarification timeout_hours must be at least 1")
	}

	switch document.Strategy(c.Scope.Strategy) {
	case document.StrategyHeuristic, document.StrategyLLM, document.StrategyHybrid:
	default:
		return fmt.Errorf("invalid scope strategy: %q", c.Scope.Strategy)
	}

	if c.RAG.TopK < 1 {
		return errors.New("rag top_k must be at least 1")
	}
	if c.RAG.InputDir != "" && c.RAG.OutputDir == "" {
		return errors.New("rag output_dir required when input_dir is set")
	}

	return nil
}

// ClarificationTimeout returns the clarification expiry window as a
// duration.
func (c *Config) ClarificationTimeout() time.Duration {
	return time.Duration(c.Clarification.TimeoutHours) * time.Hour
}
