package ai

import (
	"context"
	"fmt"
	"strings"
)

// EmbeddingConfig holds API settings for text-embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Embed returns the embedding vector for the given text.
func (c *OpenAICompatibleClient) Embed(ctx context.Context, cfg EmbeddingConfig, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}

	reqBody := map[string]interface{}{
		"model": cfg.Model,
		"input": text,
	}
	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, cfg.BaseURL, cfg.APIKey, "/embeddings", reqBody, &parsed); err != nil {
		return nil, fmt.Errorf("embedding %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return parsed.Data[0].Embedding, nil
}

// APIEmbedder binds an OpenAICompatibleClient to one embedding model.
type APIEmbedder struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewAPIEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig) *APIEmbedder {
	return &APIEmbedder{client: client, cfg: cfg}
}

func (e *APIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.client.Embed(ctx, e.cfg, text)
}

// ModelID identifies the embedding model, used for cache keys.
func (e *APIEmbedder) ModelID() string {
	return e.cfg.Model
}
