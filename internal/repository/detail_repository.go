package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"detail-library/internal/model"
)

const detailColumns = "id, title, category, tags, description"

// EmbeddingTx is the slice of the repository the backfill job uses inside a transaction.
type EmbeddingTx interface {
	ListUnembedded(ctx context.Context) ([]model.Detail, error)
	UpdateEmbedding(ctx context.Context, id uint, vec []float32) (bool, error)
}

type DetailRepository struct {
	db *gorm.DB
}

func NewDetailRepository(db *gorm.DB) *DetailRepository {
	return &DetailRepository{db: db}
}

// CreateWithRules inserts a detail and its usage rules atomically. A detail
// whose title already exists is left untouched and reported as not created.
func (r *DetailRepository) CreateWithRules(ctx context.Context, detail *model.Detail, rules []model.DetailUsageRule) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Detail{}).Where("title = ?", detail.Title).Count(&count).Error; err != nil {
			return fmt.Errorf("count details failed: %w", err)
		}
		if count > 0 {
			return nil
		}
		if err := tx.Omit("embedding").Create(detail).Error; err != nil {
			return fmt.Errorf("create detail failed: %w", err)
		}
		for i := range rules {
			rules[i].DetailID = detail.ID
		}
		if len(rules) > 0 {
			if err := tx.Create(&rules).Error; err != nil {
				return fmt.Errorf("create detail usage rules failed: %w", err)
			}
		}
		created = true
		return nil
	})
	return created, err
}

func (r *DetailRepository) ListAll(ctx context.Context) ([]model.Detail, error) {
	var details []model.Detail
	if err := r.db.WithContext(ctx).Select(detailColumns).Order("id").Find(&details).Error; err != nil {
		return nil, fmt.Errorf("list details failed: %w", err)
	}
	return details, nil
}

func (r *DetailRepository) FindByID(ctx context.Context, id uint) (*model.Detail, error) {
	var detail model.Detail
	err := r.db.WithContext(ctx).Select(detailColumns).Where("id = ?", id).First(&detail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find detail failed: %w", err)
	}
	return &detail, nil
}

// SearchText matches title or description by case-insensitive substring,
// tags by exact lowercase value or case-insensitive substring.
func (r *DetailRepository) SearchText(ctx context.Context, q string) ([]model.Detail, error) {
	pattern := "%" + q + "%"
	var details []model.Detail
	err := r.db.WithContext(ctx).
		Select(detailColumns).
		Where(`title ILIKE @pattern
			OR description ILIKE @pattern
			OR @query = ANY(tags)
			OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE @pattern)`,
			sql.Named("pattern", pattern),
			sql.Named("query", strings.ToLower(q)),
		).
		Order("id").
		Find(&details).Error
	if err != nil {
		return nil, fmt.Errorf("search details failed: %w", err)
	}
	return details, nil
}

// FindByRule returns the first detail whose usage rule matches all three
// fields case-insensitively, or nil when none does.
func (r *DetailRepository) FindByRule(ctx context.Context, host, adjacent, exposure string) (*model.Detail, error) {
	var details []model.Detail
	err := r.db.WithContext(ctx).
		Table(model.TableNameDetails+" AS d").
		Select("d.id, d.title, d.category, d.tags, d.description").
		Joins("JOIN "+model.TableNameDetailUsageRules+" r ON r.detail_id = d.id").
		Where("LOWER(r.host_element) = LOWER(?) AND LOWER(r.adjacent_element) = LOWER(?) AND LOWER(r.exposure) = LOWER(?)",
			host, adjacent, exposure).
		Limit(1).
		Find(&details).Error
	if err != nil {
		return nil, fmt.Errorf("find detail by rule failed: %w", err)
	}
	if len(details) == 0 {
		return nil, nil
	}
	return &details[0], nil
}

func (r *DetailRepository) ListUnembedded(ctx context.Context) ([]model.Detail, error) {
	var details []model.Detail
	err := r.db.WithContext(ctx).
		Select("id, title, description, tags").
		Where("embedding IS NULL").
		Order("id").
		Find(&details).Error
	if err != nil {
		return nil, fmt.Errorf("list unembedded details failed: %w", err)
	}
	return details, nil
}

// UpdateEmbedding sets the vector only if the row has none yet.
func (r *DetailRepository) UpdateEmbedding(ctx context.Context, id uint, vec []float32) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Detail{}).
		Where("id = ? AND embedding IS NULL", id).
		Update("embedding", pgvector.NewVector(vec))
	if result.Error != nil {
		return false, fmt.Errorf("update detail embedding failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

type similarityRow struct {
	ID          uint
	Title       string
	Category    string
	Tags        pq.StringArray
	Description string
	Similarity  float64
}

// SearchBySimilarity ranks embedded details by cosine similarity to vec.
func (r *DetailRepository) SearchBySimilarity(ctx context.Context, vec []float32, k int) ([]model.ScoredDetail, error) {
	if k <= 0 {
		return nil, nil
	}
	query := pgvector.NewVector(vec)

	var rows []similarityRow
	err := r.db.WithContext(ctx).
		Table(model.TableNameDetails).
		Select(detailColumns+", 1 - (embedding <=> ?) AS similarity", query).
		Where("embedding IS NOT NULL").
		Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{query}}}).
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search details by similarity failed: %w", err)
	}

	scored := make([]model.ScoredDetail, len(rows))
	for i, row := range rows {
		scored[i] = model.ScoredDetail{
			Detail: model.Detail{
				ID:          row.ID,
				Title:       row.Title,
				Category:    row.Category,
				Tags:        row.Tags,
				Description: row.Description,
			},
			Similarity: row.Similarity,
		}
	}
	return scored, nil
}

// WithinTransaction runs fn against a repository bound to one transaction;
// every update commits together when fn returns nil.
func (r *DetailRepository) WithinTransaction(ctx context.Context, fn func(tx EmbeddingTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DetailRepository{db: tx})
	})
}
