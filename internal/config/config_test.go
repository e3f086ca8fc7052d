package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.App.Port)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
	assert.Equal(t, 20, cfg.Suggest.RetrievalK)
	assert.Equal(t, 2, cfg.Suggest.DefaultTopN)
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
port = 9000

[suggest]
retrieval_k = 30
default_top_n = 3

[llm]
model = "from-file"
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SUGGEST_DEFAULT_TOP_N", "5")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("LLM_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, 30, cfg.Suggest.RetrievalK)
	assert.Equal(t, 5, cfg.Suggest.DefaultTopN)
	assert.Equal(t, "from-file", cfg.LLM.Model)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.InDelta(t, 0.5, cfg.LLM.RequestsPerSecond, 1e-9)
	assert.True(t, cfg.LLMEnabled())
}

func TestPostgresDSN(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "host=127.0.0.1 port=5432 user=postgres password= dbname=details sslmode=disable", cfg.PostgresDSN())

	cfg.Postgres.DSN = "postgres://u:p@db:5432/details"
	assert.Equal(t, "postgres://u:p@db:5432/details", cfg.PostgresDSN())
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nport ="), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}
