package cache

import (
	"context"
	"log/slog"

	"detail-library/internal/ai"
)

// VectorStore is the storage side of CachedEmbedder.
type VectorStore interface {
	GetEmbedding(ctx context.Context, modelID, text string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, modelID, text string, vec []float32) error
}

// CachedEmbedder serves repeated query texts from a VectorStore. Cache
// failures are logged and bypassed; embedder failures are returned as-is.
type CachedEmbedder struct {
	next    ai.Embedder
	store   VectorStore
	modelID string
	logger  *slog.Logger
}

func NewCachedEmbedder(next ai.Embedder, store VectorStore, modelID string, logger *slog.Logger) *CachedEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{next: next, store: store, modelID: modelID, logger: logger}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, hit, err := e.store.GetEmbedding(ctx, e.modelID, text)
	if err != nil {
		e.logger.Warn("embedding cache read failed", "err", err)
	}
	if hit {
		return vec, nil
	}

	vec, err = e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.store.SetEmbedding(ctx, e.modelID, text, vec); err != nil {
		e.logger.Warn("embedding cache write failed", "err", err)
	}
	return vec, nil
}
