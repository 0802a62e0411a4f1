package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus and extraction statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}

	report, err := statusService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("gathering status: %w", err)
	}

	cmd.Println(titleStyle.Render("Corpus"))
	cmd.Printf("  %s %d\n", labelStyle.Render("Documents:"), report.Documents)
	cmd.Printf("  %s %d\n", labelStyle.Render("Chunks:"), report.Chunks)
	cmd.Printf("  %s %d\n", labelStyle.Render("Vectors:"), report.Vectors)

	cmd.Println()
	cmd.Println(titleStyle.Render("Patterns"))
	for _, t := range domain.PatternTypes {
		cmd.Printf("  %-14s %5d patterns  %5d families\n",
			string(t)+":", report.Patterns[t], report.Families[t])
	}

	return nil
}
