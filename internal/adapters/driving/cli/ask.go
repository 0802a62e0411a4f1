package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
)

var (
	askTopK int
	askJSON bool
	askType string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question over the ingested corpus",
	Long: `Classifies the question and routes it to the appropriate path:
comparative distribution reports, recurring-family summaries,
pattern-type listings or general retrieval-augmented answering with
citations.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of retrieval results to consider")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	askCmd.Flags().StringVarP(&askType, "type", "t", "", "force a pattern type (requirement, risk, constraint, success_point, failure_point)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	question := args[0]
	ctx := cmd.Context()

	opts := driving.AskOptions{TopK: askTopK}
	if askType != "" {
		t, err := domain.ParsePatternType(askType)
		if err != nil {
			return err
		}
		opts.TypeHint = t
	}

	resp, err := answerService.Answer(ctx, question, opts)
	if err != nil {
		return fmt.Errorf("answering failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(titleStyle.Render("Answer"))
	cmd.Println()
	cmd.Println(resp.Answer)

	if len(resp.Evidence) > 0 {
		cmd.Println()
		cmd.Println(titleStyle.Render("Evidence"))
		for i, ev := range resp.Evidence {
			cmd.Printf("  [%d] %s\n", i+1, truncate(ev.Text, 120))
			if ev.Citation != "" {
				cmd.Printf("      %s\n", faintStyle.Render(ev.Citation))
			}
		}
	}

	return nil
}

// truncate shortens s to at most n runes for display.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
