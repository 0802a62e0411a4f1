package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
)

var extractCmd = &cobra.Command{
	Use:   "extract [type]",
	Short: "Extract typed patterns from the ingested corpus",
	Long: `Runs LLM pattern extraction over every chunk. With a type argument
(requirement, risk, constraint, success_point, failure_point) only that
type is extracted; otherwise all types run in order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractService == nil {
		return errors.New("extract service not configured")
	}

	ctx := cmd.Context()

	types := domain.PatternTypes
	if len(args) > 0 {
		t, err := domain.ParsePatternType(args[0])
		if err != nil {
			return err
		}
		types = []domain.PatternType{t}
	}

	for _, t := range types {
		cmd.Printf("Extracting %s patterns...\n", t)
		stats, err := extractService.Extract(ctx, t)
		if err != nil {
			return fmt.Errorf("extracting %s patterns: %w", t, err)
		}
		printExtractStats(cmd, stats)
	}

	return nil
}

func printExtractStats(cmd *cobra.Command, stats driving.ExtractStats) {
	cmd.Printf("%s %d chunks processed, %d patterns extracted, %d skipped, %d failed\n",
		labelStyle.Render("Done:"),
		stats.Processed, stats.Extracted, stats.Skipped, stats.Failed)
}
