package app

import (
	"context"

	"detail-library/internal/model"
)

// SimilaritySearcher ranks embedded details by cosine similarity.
type SimilaritySearcher interface {
	SearchBySimilarity(ctx context.Context, vec []float32, k int) ([]model.ScoredDetail, error)
}

// Retriever is the vector-store side of the pipeline. It never writes.
type Retriever struct {
	store     SimilaritySearcher
	dimension int
}

// NewRetriever checks query vectors against dimension when it is positive.
func NewRetriever(store SimilaritySearcher, dimension int) *Retriever {
	return &Retriever{store: store, dimension: dimension}
}

// Search returns at most k candidates by descending similarity. An empty
// result means no detail has an embedding yet.
func (r *Retriever) Search(ctx context.Context, queryVector []float32, k int) ([]Candidate, error) {
	if err := checkDimension(queryVector, r.dimension); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Candidate{}, nil
	}

	scored, err := r.store.SearchBySimilarity(ctx, queryVector, k)
	if err != nil {
		return nil, err
	}
	if len(scored) > k {
		scored = scored[:k]
	}

	candidates := make([]Candidate, len(scored))
	for i, s := range scored {
		candidates[i] = Candidate{Detail: s.Detail, Similarity: s.Similarity}
	}
	return candidates, nil
}
