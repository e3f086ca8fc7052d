package app

import (
	"context"
	"fmt"
	"log/slog"

	"detail-library/internal/ai"
)

// SuggestOptions bounds the retrieval and rerank stages.
type SuggestOptions struct {
	RetrievalK  int
	DefaultTopN int
	MaxTopN     int
}

func DefaultSuggestOptions() SuggestOptions {
	return SuggestOptions{
		RetrievalK:  20,
		DefaultTopN: 2,
		MaxTopN:     10,
	}
}

// SuggestService runs the retrieval-augmented suggestion pipeline:
// embed query, vector search, rerank, explain.
type SuggestService struct {
	embedder  ai.Embedder
	retriever *Retriever
	reranker  ai.Reranker
	explainer *Explainer
	opts      SuggestOptions
	logger    *slog.Logger
}

// NewSuggestService wires the pipeline. embedder and reranker may be nil;
// Suggest then reports ai.ErrCapabilityUnavailable.
func NewSuggestService(
	embedder ai.Embedder,
	retriever *Retriever,
	reranker ai.Reranker,
	explainer *Explainer,
	opts SuggestOptions,
	logger *slog.Logger,
) *SuggestService {
	defaults := DefaultSuggestOptions()
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = defaults.RetrievalK
	}
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = defaults.DefaultTopN
	}
	if opts.MaxTopN <= 0 {
		opts.MaxTopN = defaults.MaxTopN
	}
	if explainer == nil {
		explainer = NewExplainer(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SuggestService{
		embedder:  embedder,
		retriever: retriever,
		reranker:  reranker,
		explainer: explainer,
		opts:      opts,
		logger:    logger,
	}
}

// Available reports whether the providers Suggest requires are configured.
func (s *SuggestService) Available() bool {
	return s.embedder != nil && s.reranker != nil && s.retriever != nil
}

// Suggest returns up to topN ranked suggestions and a summary line. A
// topN of zero or less uses the configured default. An empty store is not
// an error: it yields no suggestions and an explanatory summary.
func (s *SuggestService) Suggest(ctx context.Context, c SuggestionContext, topN int) ([]Suggestion, string, error) {
	c, err := c.normalized()
	if err != nil {
		return nil, "", err
	}
	if !s.Available() {
		return nil, "", ai.ErrCapabilityUnavailable
	}
	if topN <= 0 {
		topN = s.opts.DefaultTopN
	}
	if topN > s.opts.MaxTopN {
		topN = s.opts.MaxTopN
	}

	query := BuildQuery(c)
	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, "", fmt.Errorf("embed query failed: %w", err)
	}

	candidates, err := s.retriever.Search(ctx, queryVector, s.opts.RetrievalK)
	if err != nil {
		return nil, "", fmt.Errorf("retrieve candidates failed: %w", err)
	}
	if len(candidates) == 0 {
		s.logger.Info("suggest found no embedded details", "host", c.HostElement, "adjacent", c.AdjacentElement)
		return []Suggestion{}, NoCandidatesSummary(c), nil
	}

	reranked, err := Rerank(ctx, s.reranker, query, candidates, topN)
	if err != nil {
		return nil, "", err
	}

	suggestions := make([]Suggestion, 0, len(reranked))
	for i, cand := range reranked {
		d := cand.Detail
		suggestions = append(suggestions, Suggestion{
			ID:          d.ID,
			Title:       d.Title,
			Category:    d.Category,
			Tags:        []string(d.Tags),
			Description: d.Description,
			Reason:      s.explainer.Explain(ctx, c, d),
			Rank:        i + 1,
			Similarity:  cand.Similarity,
			RerankScore: cand.RerankScore,
		})
	}

	s.logger.Info("suggest done", "candidates", len(candidates), "suggestions", len(suggestions))
	return suggestions, SuggestionSummary(c, len(suggestions)), nil
}

func SuggestionSummary(c SuggestionContext, count int) string {
	return fmt.Sprintf("Found %d relevant details for %s + %s (%s)", count, c.HostElement, c.AdjacentElement, c.Exposure)
}

func NoCandidatesSummary(c SuggestionContext) string {
	return fmt.Sprintf("No matching details found for:\n"+
		"• Host Element: %s\n"+
		"• Adjacent Element: %s\n"+
		"• Exposure: %s\n\n"+
		"The database may need to be populated with more architectural details.",
		c.HostElement, c.AdjacentElement, c.Exposure)
}
