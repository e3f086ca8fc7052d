package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"detail-library/internal/ai"
	"detail-library/internal/model"
)

var errEmptyExplanation = errors.New("generator returned empty text")

// Explainer writes the reason shown next to each suggestion. It asks the
// generator when one is configured and falls back to a fixed template on
// any failure, so Explain always returns text.
type Explainer struct {
	generator ai.Generator
	logger    *slog.Logger
}

// NewExplainer accepts a nil generator, meaning template mode only.
func NewExplainer(generator ai.Generator, logger *slog.Logger) *Explainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Explainer{generator: generator, logger: logger}
}

type generation struct {
	text string
	err  error
}

func (e *Explainer) Explain(ctx context.Context, c SuggestionContext, d model.Detail) string {
	g := e.generate(ctx, c, d)
	if g.err != nil {
		if !errors.Is(g.err, ai.ErrCapabilityUnavailable) {
			e.logger.Warn("explanation generation failed, using template", "detail_id", d.ID, "err", g.err)
		}
		return FallbackExplanation(c, d)
	}
	return g.text
}

func (e *Explainer) generate(ctx context.Context, c SuggestionContext, d model.Detail) (res generation) {
	if e.generator == nil {
		return generation{err: ai.ErrCapabilityUnavailable}
	}
	defer func() {
		if r := recover(); r != nil {
			res = generation{err: fmt.Errorf("generator panic: %v", r)}
		}
	}()

	text, err := e.generator.Generate(ctx, ExplanationPrompt(c, d))
	if err != nil {
		return generation{err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return generation{err: errEmptyExplanation}
	}
	return generation{text: text}
}

func ExplanationPrompt(c SuggestionContext, d model.Detail) string {
	return fmt.Sprintf(`You are an architectural detail expert. Based on the following context, explain why this detail is recommended.

User Context:
- Host Element: %s
- Adjacent Element: %s
- Exposure: %s

Recommended Detail:
- Title: %s
- Category: %s
- Description: %s
- Tags: %s

Provide a clear, professional explanation (2-3 sentences) of why this detail is the best match for the user's requirements. Focus on technical relevance and practical application.`,
		c.HostElement, c.AdjacentElement, c.Exposure,
		d.Title, d.Category, d.Description, strings.Join(d.Tags, ", "))
}

func FallbackExplanation(c SuggestionContext, d model.Detail) string {
	return fmt.Sprintf("Based on your context:\n"+
		"• Host Element: %s\n"+
		"• Adjacent Element: %s\n"+
		"• Exposure: %s\n\n"+
		"We recommend '%s' because it addresses the junction between %s and %s in %s conditions.",
		c.HostElement, c.AdjacentElement, c.Exposure,
		d.Title, strings.ToLower(c.HostElement), strings.ToLower(c.AdjacentElement), strings.ToLower(c.Exposure))
}
