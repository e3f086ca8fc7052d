package app

import (
	"errors"
	"fmt"
	"strings"

	"detail-library/internal/model"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// SuggestionContext describes the junction a caller needs a detail for.
type SuggestionContext struct {
	HostElement     string
	AdjacentElement string
	Exposure        string
}

func (c SuggestionContext) normalized() (SuggestionContext, error) {
	out := SuggestionContext{
		HostElement:     strings.TrimSpace(c.HostElement),
		AdjacentElement: strings.TrimSpace(c.AdjacentElement),
		Exposure:        strings.TrimSpace(c.Exposure),
	}
	if out.HostElement == "" || out.AdjacentElement == "" || out.Exposure == "" {
		return SuggestionContext{}, ErrInvalidInput
	}
	return out, nil
}

// Candidate is a detail scored for one query. RerankScore is zero until
// the rerank stage has run.
type Candidate struct {
	Detail      model.Detail
	Similarity  float64
	RerankScore float32
}

// Suggestion is a reranked candidate with its explanation and 1-based rank.
type Suggestion struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Reason      string   `json:"reason"`
	Rank        int      `json:"rank"`
	Similarity  float64  `json:"similarity"`
	RerankScore float32  `json:"rerank_score"`
}

// The three text conventions below feed model inputs. Changing any of them
// changes retrieval or rerank behaviour for existing data.

// BuildQuery phrases a context as a junction-detail search query.
func BuildQuery(c SuggestionContext) string {
	return fmt.Sprintf("%s %s junction detail %s conditions", c.HostElement, c.AdjacentElement, c.Exposure)
}

// CandidateText is the passage the reranker scores for a detail.
func CandidateText(d model.Detail) string {
	return d.Title + " " + d.Description
}

// BackfillText is the text embedded and stored for a detail.
func BackfillText(d model.Detail) string {
	return fmt.Sprintf("%s %s %s", d.Title, d.Description, strings.Join(d.Tags, " "))
}

func checkDimension(vec []float32, want int) error {
	if want > 0 && len(vec) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), want)
	}
	return nil
}
