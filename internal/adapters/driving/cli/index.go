package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	indexSkipLexical bool
	indexSkipVector  bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the retrieval indexes",
	Long: `Builds the lexical (BM25) and vector indexes from the ingested
corpus. The vector index requires a running Ollama instance for
embeddings.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexSkipLexical, "skip-lexical", false, "skip the lexical index")
	indexCmd.Flags().BoolVar(&indexSkipVector, "skip-vector", false, "skip the vector index")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	ctx := cmd.Context()

	if !indexSkipLexical {
		cmd.Println("Building lexical index...")
		if err := indexService.BuildLexical(ctx); err != nil {
			return fmt.Errorf("building lexical index: %w", err)
		}
		cmd.Println(labelStyle.Render("Lexical index built."))
	}

	if !indexSkipVector {
		cmd.Println("Building vector index...")
		if err := indexService.BuildVector(ctx); err != nil {
			return fmt.Errorf("building vector index: %w", err)
		}
		cmd.Println(labelStyle.Render("Vector index built."))
	}

	return nil
}
