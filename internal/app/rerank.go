package app

import (
	"context"
	"fmt"
	"sort"

	"detail-library/internal/ai"
)

// Rerank scores every candidate against query, orders them by descending
// score and keeps the first topK. Equal scores keep their input order.
func Rerank(ctx context.Context, reranker ai.Reranker, query string, candidates []Candidate, topK int) ([]Candidate, error) {
	if len(candidates) == 0 || topK <= 0 {
		return []Candidate{}, nil
	}
	if reranker == nil {
		return nil, ai.ErrCapabilityUnavailable
	}

	scored := make([]Candidate, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		score, err := reranker.Score(ctx, query, CandidateText(scored[i].Detail))
		if err != nil {
			return nil, fmt.Errorf("rerank detail %d failed: %w", scored[i].Detail.ID, err)
		}
		scored[i].RerankScore = score
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankScore > scored[j].RerankScore
	})
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}
