package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"detail-library/internal/app"
	"detail-library/internal/bootstrap"
)

var (
	suggestHost     string
	suggestAdjacent string
	suggestExposure string
	suggestTopN     int
	suggestJSON     bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest details for a junction context",
	Example: `  detailctl suggest --host "External Wall" --adjacent Slab --exposure External
  detailctl suggest --host Window --adjacent "External Wall" --exposure External -n 3 --json`,
	Args: cobra.NoArgs,
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestHost, "host", "", "host element")
	suggestCmd.Flags().StringVar(&suggestAdjacent, "adjacent", "", "adjacent element")
	suggestCmd.Flags().StringVar(&suggestExposure, "exposure", "", "exposure condition")
	suggestCmd.Flags().IntVarP(&suggestTopN, "top", "n", 0, "number of suggestions (0 uses the configured default)")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "output results as JSON")
	_ = suggestCmd.MarkFlagRequired("host")
	_ = suggestCmd.MarkFlagRequired("adjacent")
	_ = suggestCmd.MarkFlagRequired("exposure")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	sc := app.SuggestionContext{
		HostElement:     suggestHost,
		AdjacentElement: suggestAdjacent,
		Exposure:        suggestExposure,
	}
	return withApp(cmd, func(ctx context.Context, a *bootstrap.App) error {
		suggestions, summary, err := a.SuggestService.Suggest(ctx, sc, suggestTopN)
		if err != nil {
			return fmt.Errorf("suggest failed: %w", err)
		}
		if suggestJSON {
			return printSuggestionsJSON(cmd, suggestions, summary)
		}
		printSuggestions(cmd, suggestions, summary)
		return nil
	})
}

func printSuggestionsJSON(cmd *cobra.Command, suggestions []app.Suggestion, summary string) error {
	data, err := json.MarshalIndent(map[string]interface{}{
		"suggestions": suggestions,
		"summary":     summary,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal suggestions failed: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printSuggestions(cmd *cobra.Command, suggestions []app.Suggestion, summary string) {
	cmd.Println(summary)
	for _, s := range suggestions {
		cmd.Println()
		cmd.Printf("[%d] %s (%s) score=%.3f\n", s.Rank, s.Title, s.Category, s.RerankScore)
		cmd.Println(s.Reason)
	}
}
