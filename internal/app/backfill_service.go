package app

import (
	"context"
	"fmt"
	"log/slog"

	"detail-library/internal/ai"
	"detail-library/internal/repository"
)

// EmbeddingBackfillStore runs the backfill inside one transaction.
type EmbeddingBackfillStore interface {
	WithinTransaction(ctx context.Context, fn func(tx repository.EmbeddingTx) error) error
}

// BackfillService computes embeddings for details that have none.
type BackfillService struct {
	store     EmbeddingBackfillStore
	embedder  ai.Embedder
	dimension int
	logger    *slog.Logger
}

func NewBackfillService(store EmbeddingBackfillStore, embedder ai.Embedder, dimension int, logger *slog.Logger) *BackfillService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackfillService{
		store:     store,
		embedder:  embedder,
		dimension: dimension,
		logger:    logger,
	}
}

// Run embeds every detail lacking a vector and commits once. Any failure
// rolls the whole run back; details that already have a vector are skipped.
func (s *BackfillService) Run(ctx context.Context) (int, error) {
	if s.embedder == nil {
		return 0, ai.ErrCapabilityUnavailable
	}

	var updated int
	err := s.store.WithinTransaction(ctx, func(tx repository.EmbeddingTx) error {
		updated = 0
		details, err := tx.ListUnembedded(ctx)
		if err != nil {
			return err
		}
		for _, d := range details {
			vec, err := s.embedder.Embed(ctx, BackfillText(d))
			if err != nil {
				return fmt.Errorf("embed detail %d failed: %w", d.ID, err)
			}
			if err := checkDimension(vec, s.dimension); err != nil {
				return fmt.Errorf("embed detail %d failed: %w", d.ID, err)
			}
			ok, err := tx.UpdateEmbedding(ctx, d.ID, vec)
			if err != nil {
				return err
			}
			if ok {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("embedding backfill done", "updated", updated)
	return updated, nil
}
