package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedGenerator throttles calls to a Generator with a token bucket.
// A limiter wait that cannot complete before ctx ends is returned as an error.
type RateLimitedGenerator struct {
	next    Generator
	limiter *rate.Limiter
}

func NewRateLimitedGenerator(next Generator, requestsPerSecond float64, burst int) *RateLimitedGenerator {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &RateLimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (g *RateLimitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generation rate limit: %w", err)
	}
	return g.next.Generate(ctx, prompt)
}
