// Package ai holds the model capability interfaces used by the suggestion
// pipeline and their remote (HTTP) implementations.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrCapabilityUnavailable means a required provider was never configured.
	ErrCapabilityUnavailable = errors.New("model capability unavailable")
	// ErrEmptyEmbedding means the provider answered but returned no vector.
	ErrEmptyEmbedding = errors.New("empty embedding in response")
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores a (query, candidate) pair; higher is more relevant.
type Reranker interface {
	Score(ctx context.Context, query, candidate string) (float32, error)
}

// Generator produces free text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
