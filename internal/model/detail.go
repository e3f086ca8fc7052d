package model

import (
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const TableNameDetails = "details"

// Detail is a catalogued construction junction solution.
// Embedding stays NULL until the backfill job fills it and is never overwritten.
type Detail struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Title       string           `gorm:"size:256;not null" json:"title"`
	Category    string           `gorm:"size:128;not null;index" json:"category"`
	Tags        pq.StringArray   `gorm:"type:text[]" json:"tags"`
	Description string           `gorm:"type:text;not null" json:"description"`
	Embedding   *pgvector.Vector `gorm:"type:vector" json:"-"`
}

func (*Detail) TableName() string {
	return TableNameDetails
}

// HasEmbedding reports whether the backfill job has populated the vector.
func (d *Detail) HasEmbedding() bool {
	return d.Embedding != nil && len(d.Embedding.Slice()) > 0
}

// ScoredDetail is a detail returned by similarity search.
type ScoredDetail struct {
	Detail     Detail
	Similarity float64
}
