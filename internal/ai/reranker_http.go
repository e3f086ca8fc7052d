package ai

import (
	"context"
	"fmt"
	"time"
)

// HTTPRerankerConfig points at a cross-encoder served behind a /rerank
// endpoint (text-embeddings-inference, Jina and Cohere-style APIs).
type HTTPRerankerConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type HTTPReranker struct {
	client *OpenAICompatibleClient
	cfg    HTTPRerankerConfig
}

func NewHTTPReranker(cfg HTTPRerankerConfig) *HTTPReranker {
	return &HTTPReranker{
		client: NewOpenAICompatibleClient(cfg.Timeout),
		cfg:    cfg,
	}
}

func (r *HTTPReranker) Score(ctx context.Context, query, candidate string) (float32, error) {
	reqBody := map[string]interface{}{
		"query":     query,
		"documents": []string{candidate},
	}
	if r.cfg.Model != "" {
		reqBody["model"] = r.cfg.Model
	}

	var parsed struct {
		Results []struct {
			Index          int     `json:"index"`
			RelevanceScore float32 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := r.client.postJSON(ctx, r.cfg.BaseURL, r.cfg.APIKey, "/rerank", reqBody, &parsed); err != nil {
		return 0, fmt.Errorf("rerank %w", err)
	}
	for _, res := range parsed.Results {
		if res.Index == 0 {
			return res.RelevanceScore, nil
		}
	}
	return 0, fmt.Errorf("rerank response has no score")
}
