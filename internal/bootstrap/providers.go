package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"detail-library/internal/ai"
	"detail-library/internal/cache"
	"detail-library/internal/config"
	"detail-library/internal/onnx"
)

const (
	providerNone   = "none"
	providerONNX   = "onnx"
	providerOpenAI = "openai"
	providerHTTP   = "http"
)

// Providers are the model capabilities of the pipeline. A nil field means
// the capability is not configured. QueryEmbedder wraps Embedder with the
// redis cache when one is available; backfill uses Embedder directly.
type Providers struct {
	Embedder      ai.Embedder
	QueryEmbedder ai.Embedder
	Reranker      ai.Reranker
	Generator     ai.Generator

	closers []func() error
}

func (p Providers) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildProviders constructs the configured providers. ONNX models load
// lazily on first use; here only their files are checked. rdb may be nil.
func BuildProviders(cfg *config.Config, rdb *redis.Client, logger *slog.Logger) (Providers, error) {
	var p Providers

	embedder, modelID, closer, err := buildEmbedder(cfg.Embedding, logger)
	if err != nil {
		return p, err
	}
	if closer != nil {
		p.closers = append(p.closers, closer)
	}
	p.Embedder = embedder
	p.QueryEmbedder = embedder
	if embedder != nil && rdb != nil {
		ttl := time.Duration(cfg.Redis.EmbeddingTTLSeconds) * time.Second
		p.QueryEmbedder = cache.NewCachedEmbedder(embedder, cache.NewEmbeddingCache(rdb, ttl), modelID, logger)
	}

	reranker, closer, err := buildReranker(cfg.Reranker, logger)
	if err != nil {
		return p, err
	}
	if closer != nil {
		p.closers = append(p.closers, closer)
	}
	p.Reranker = reranker

	if cfg.LLMEnabled() {
		client := ai.NewOpenAICompatibleClient(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second)
		chat := ai.NewChatGenerator(client, ai.ChatConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		})
		p.Generator = ai.NewRateLimitedGenerator(chat, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
	} else {
		logger.Info("llm not configured, explanations use the template")
	}

	return p, nil
}

func buildEmbedder(cfg config.EmbeddingConfig, logger *slog.Logger) (ai.Embedder, string, func() error, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", providerNone:
		logger.Info("embedding provider disabled")
		return nil, "", nil, nil
	case providerONNX:
		if !filesExist(cfg.ModelPath, cfg.TokenizerPath) {
			logger.Warn("embedding model files missing, embedding disabled",
				"model_path", cfg.ModelPath, "tokenizer_path", cfg.TokenizerPath)
			return nil, "", nil, nil
		}
		enc := onnx.NewSentenceEncoder(onnx.Config{
			ModelID:       cfg.Model,
			ModelPath:     cfg.ModelPath,
			TokenizerPath: cfg.TokenizerPath,
			SharedLibPath: cfg.ONNXSharedLibPath,
			MaxSeqLen:     cfg.MaxSeqLen,
		}, cfg.Dimension)
		return enc, enc.ModelID(), enc.Close, nil
	case providerOpenAI:
		if cfg.BaseURL == "" || cfg.Model == "" {
			logger.Warn("embedding api not configured, embedding disabled")
			return nil, "", nil, nil
		}
		emb := ai.NewAPIEmbedder(ai.NewOpenAICompatibleClient(0), ai.EmbeddingConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		})
		return emb, emb.ModelID(), nil, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func buildReranker(cfg config.RerankerConfig, logger *slog.Logger) (ai.Reranker, func() error, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", providerNone:
		logger.Info("reranker provider disabled")
		return nil, nil, nil
	case providerONNX:
		if !filesExist(cfg.ModelPath, cfg.TokenizerPath) {
			logger.Warn("reranker model files missing, reranking disabled",
				"model_path", cfg.ModelPath, "tokenizer_path", cfg.TokenizerPath)
			return nil, nil, nil
		}
		ce := onnx.NewCrossEncoder(onnx.Config{
			ModelID:       cfg.Model,
			ModelPath:     cfg.ModelPath,
			TokenizerPath: cfg.TokenizerPath,
			SharedLibPath: cfg.ONNXSharedLibPath,
			MaxSeqLen:     cfg.MaxSeqLen,
		})
		return ce, ce.Close, nil
	case providerHTTP:
		if cfg.BaseURL == "" {
			logger.Warn("reranker url not configured, reranking disabled")
			return nil, nil, nil
		}
		return ai.NewHTTPReranker(ai.HTTPRerankerConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		}), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown reranker provider %q", cfg.Provider)
	}
}

func filesExist(paths ...string) bool {
	for _, p := range paths {
		if p == "" {
			return false
		}
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
