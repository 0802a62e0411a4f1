package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
)

var familiesTop int

var familiesCmd = &cobra.Command{
	Use:   "families [type]",
	Short: "List the top recurring pattern families",
	Long: `Shows the most recurring pattern families of a type, ordered by the
number of distinct documents they appear in. Defaults to requirements.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFamilies,
}

func init() {
	familiesCmd.Flags().IntVarP(&familiesTop, "top", "n", 10, "number of families to show")
	rootCmd.AddCommand(familiesCmd)
}

func runFamilies(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	t := domain.PatternRequirement
	if len(args) > 0 {
		parsed, err := domain.ParsePatternType(args[0])
		if err != nil {
			return err
		}
		t = parsed
	}

	// The family question routes deterministically to the family path.
	resp, err := answerService.Answer(cmd.Context(),
		fmt.Sprintf("What are the recurring %s families?", t),
		driving.AskOptions{TopK: familiesTop, TypeHint: t})
	if err != nil {
		return fmt.Errorf("listing families: %w", err)
	}

	cmd.Println(resp.Answer)
	return nil
}
