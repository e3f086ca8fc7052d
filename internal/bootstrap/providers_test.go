package bootstrap

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detail-library/internal/ai"
	"detail-library/internal/config"
	"detail-library/internal/onnx"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildProviders_NothingConfigured(t *testing.T) {
	cfg := &config.Config{
		Embedding: config.EmbeddingConfig{Provider: "none"},
		Reranker:  config.RerankerConfig{Provider: "onnx", ModelPath: "missing.onnx", TokenizerPath: "missing.json"},
	}

	p, err := BuildProviders(cfg, nil, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, p.Embedder)
	assert.Nil(t, p.QueryEmbedder)
	assert.Nil(t, p.Reranker)
	assert.Nil(t, p.Generator)
	assert.NoError(t, p.Close())
}

func TestBuildProviders_RemoteProviders(t *testing.T) {
	cfg := &config.Config{
		Embedding: config.EmbeddingConfig{Provider: "openai", BaseURL: "http://embed.local/v1", Model: "text-embedding-3-small"},
		Reranker:  config.RerankerConfig{Provider: "http", BaseURL: "http://rerank.local"},
		LLM:       config.LLMConfig{BaseURL: "http://llm.local/v1", APIKey: "k", Model: "m", RequestsPerSecond: 1, Burst: 1},
	}

	p, err := BuildProviders(cfg, nil, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &ai.APIEmbedder{}, p.Embedder)
	assert.Equal(t, p.Embedder, p.QueryEmbedder)
	assert.IsType(t, &ai.HTTPReranker{}, p.Reranker)
	assert.IsType(t, &ai.RateLimitedGenerator{}, p.Generator)
}

func TestBuildProviders_ONNXWithFiles(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.onnx")
	tok := filepath.Join(dir, "tokenizer.json")
	require.NoError(t, os.WriteFile(model, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(tok, []byte("{}"), 0o644))

	cfg := &config.Config{
		Embedding: config.EmbeddingConfig{Provider: "onnx", Model: "mini", ModelPath: model, TokenizerPath: tok, Dimension: 384},
		Reranker:  config.RerankerConfig{Provider: "onnx", ModelPath: model, TokenizerPath: tok},
	}

	p, err := BuildProviders(cfg, nil, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &onnx.SentenceEncoder{}, p.Embedder)
	assert.IsType(t, &onnx.CrossEncoder{}, p.Reranker)
	assert.NoError(t, p.Close())
}

func TestBuildProviders_UnknownProvider(t *testing.T) {
	cfg := &config.Config{Embedding: config.EmbeddingConfig{Provider: "word2vec"}}
	_, err := BuildProviders(cfg, nil, quietLogger())
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
