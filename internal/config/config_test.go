package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/scopegen/internal/document"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 500, cfg.Clarification.MinLength)
	assert.Equal(t, 24, cfg.Clarification.TimeoutHours)
	assert.Equal(t, string(document.StrategyHeuristic), cfg.Scope.Strategy)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.RAG.Model)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
logging:
  level: debug
  format: console
clarification:
  min_length: 250
  timeout_hours: 48
scope:
  strategy: hybrid
gemini:
  api_key: yaml-key
  model: gemini-2.0-flash
rag:
  input_dir: /data/examples/input
  output_dir: /data/examples/output
  top_k: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 250, cfg.Clarification.MinLength)
	assert.Equal(t, 48, cfg.Clarification.TimeoutHours)
	assert.Equal(t, 48*time.Hour, cfg.ClarificationTimeout())
	assert.Equal(t, string(document.StrategyHybrid), cfg.Scope.Strategy)
	assert.Equal(t, "yaml-key", cfg.Gemini.APIKey.Value())
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, 5, cfg.RAG.TopK)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("CLARIFICATION_MIN_LENGTH", "100")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Clarification.MinLength)
	assert.Equal(t, "env-key", cfg.Gemini.APIKey.Value())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: valid\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults valid", mutate: func(*Config) {}},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "bad level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid logging level",
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name:    "bad strategy",
			mutate:  func(c *Config) { c.Scope.Strategy = "oracle" },
			wantErr: "invalid scope strategy",
		},
		{
			name:    "negative min length",
			mutate:  func(c *Config) { c.Clarification.MinLength = -1 },
			wantErr: "min_length",
		},
		{
			name:    "zero timeout hours",
			mutate:  func(c *Config) { c.Clarification.TimeoutHours = 0 },
			wantErr: "timeout_hours",
		},
		{
			name:    "rag input without output",
			mutate:  func(c *Config) { c.RAG.InputDir = "/data/in" },
			wantErr: "output_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("super-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "super-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	assert.Equal(t, "", Secret("").String())
	assert.False(t, Secret("").IsSet())
}
