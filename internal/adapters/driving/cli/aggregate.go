package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [type]",
	Short: "Cluster extracted patterns into recurring families",
	Long: `Rebuilds pattern families by clustering semantically equivalent
patterns. With a type argument only that type is aggregated; otherwise
all types run in order. Aggregation replaces prior families wholesale.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	if aggregateService == nil {
		return errors.New("aggregate service not configured")
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
		cmd.Printf("Aggregating %s patterns...\n", t)
		stats, err := aggregateService.Aggregate(ctx, t)
		if err != nil {
			return fmt.Errorf("aggregating %s patterns: %w", t, err)
		}
		cmd.Printf("%s %d families created from %d patterns (%d below minimum cluster size)\n",
			labelStyle.Render("Done:"),
			stats.FamiliesCreated, stats.Clustered, stats.Skipped)
	}

	return nil
}
