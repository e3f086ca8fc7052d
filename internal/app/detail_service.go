package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"detail-library/internal/model"
)

var ErrDetailNotFound = errors.New("detail not found")

// DetailStore is the read side of the detail catalogue.
type DetailStore interface {
	ListAll(ctx context.Context) ([]model.Detail, error)
	FindByID(ctx context.Context, id uint) (*model.Detail, error)
	SearchText(ctx context.Context, q string) ([]model.Detail, error)
	FindByRule(ctx context.Context, host, adjacent, exposure string) (*model.Detail, error)
	CreateWithRules(ctx context.Context, detail *model.Detail, rules []model.DetailUsageRule) (bool, error)
}

// DetailService serves catalogue listing, text search and exact rule lookup.
type DetailService struct {
	store DetailStore
}

func NewDetailService(store DetailStore) *DetailService {
	return &DetailService{store: store}
}

func (s *DetailService) ListDetails(ctx context.Context) ([]model.Detail, error) {
	return s.store.ListAll(ctx)
}

func (s *DetailService) GetDetail(ctx context.Context, id uint) (*model.Detail, error) {
	detail, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrDetailNotFound
	}
	return detail, nil
}

func (s *DetailService) SearchDetails(ctx context.Context, q string) ([]model.Detail, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrInvalidInput
	}
	return s.store.SearchText(ctx, q)
}

// CatalogEntry is one detail to import together with the contexts it is
// the curated answer for.
type CatalogEntry struct {
	Title       string        `json:"title"`
	Category    string        `json:"category"`
	Tags        []string      `json:"tags"`
	Description string        `json:"description"`
	Rules       []CatalogRule `json:"rules"`
}

type CatalogRule struct {
	HostElement     string `json:"host_element"`
	AdjacentElement string `json:"adjacent_element"`
	Exposure        string `json:"exposure"`
}

// Import inserts catalogue entries without embeddings; run the backfill
// afterwards. Entries whose title already exists are skipped.
func (s *DetailService) Import(ctx context.Context, entries []CatalogEntry) (int, error) {
	for i, e := range entries {
		if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Category) == "" || strings.TrimSpace(e.Description) == "" {
			return 0, fmt.Errorf("%w: entry %d needs title, category and description", ErrInvalidInput, i)
		}
	}

	created := 0
	for _, e := range entries {
		detail := &model.Detail{
			Title:       strings.TrimSpace(e.Title),
			Category:    strings.TrimSpace(e.Category),
			Tags:        e.Tags,
			Description: strings.TrimSpace(e.Description),
		}
		rules := make([]model.DetailUsageRule, 0, len(e.Rules))
		for _, r := range e.Rules {
			rc, err := SuggestionContext{HostElement: r.HostElement, AdjacentElement: r.AdjacentElement, Exposure: r.Exposure}.normalized()
			if err != nil {
				return created, fmt.Errorf("%w: rule for %q is incomplete", ErrInvalidInput, e.Title)
			}
			rules = append(rules, model.DetailUsageRule{
				HostElement:     rc.HostElement,
				AdjacentElement: rc.AdjacentElement,
				Exposure:        rc.Exposure,
			})
		}
		ok, err := s.store.CreateWithRules(ctx, detail, rules)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// RuleSuggestion is the result of an exact rule lookup. Detail is nil when
// no rule matches.
type RuleSuggestion struct {
	Detail      *model.Detail `json:"detail"`
	Explanation string        `json:"explanation"`
}

func (s *DetailService) SuggestByRule(ctx context.Context, c SuggestionContext) (*RuleSuggestion, error) {
	c, err := c.normalized()
	if err != nil {
		return nil, err
	}
	detail, err := s.store.FindByRule(ctx, c.HostElement, c.AdjacentElement, c.Exposure)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return &RuleSuggestion{Explanation: noRuleExplanation(c)}, nil
	}
	return &RuleSuggestion{Detail: detail, Explanation: ruleExplanation(c, *detail)}, nil
}

func ruleExplanation(c SuggestionContext, d model.Detail) string {
	return fmt.Sprintf("Based on your context:\n"+
		"• Host Element: %s\n"+
		"• Adjacent Element: %s\n"+
		"• Exposure: %s\n\n"+
		"We recommend '%s' because it specifically addresses the junction between %s and %s in %s conditions. "+
		"This detail covers: %s",
		c.HostElement, c.AdjacentElement, c.Exposure,
		d.Title, strings.ToLower(c.HostElement), strings.ToLower(c.AdjacentElement), strings.ToLower(c.Exposure),
		strings.ToLower(d.Description))
}

func noRuleExplanation(c SuggestionContext) string {
	return fmt.Sprintf("No matching detail found for:\n"+
		"• Host Element: %s\n"+
		"• Adjacent Element: %s\n"+
		"• Exposure: %s\n\n"+
		"Try different combinations. Available contexts include:\n"+
		"• External Wall + Slab + External\n"+
		"• Window + External Wall + External\n"+
		"• Internal Wall + Floor + Internal",
		c.HostElement, c.AdjacentElement, c.Exposure)
}
