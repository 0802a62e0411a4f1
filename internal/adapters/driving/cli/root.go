// Package cli implements the marianalyzer command line interface.
// Commands are thin adapters over the driving service ports; all
// behaviour lives in the core services.
package cli

import (
	"context"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

// version is injected by Execute.
var version = "dev"

// Services injected by Execute. Commands check for nil before use so the
// package stays testable without full wiring.
var (
	ingestService    driving.IngestService
	indexService     driving.IndexService
	extractService   driving.ExtractService
	aggregateService driving.AggregateService
	answerService    driving.AnswerService
	statusService    driving.StatusService
)

// Output styles.
var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "marianalyzer",
	Short: "Extract and query patterns from document corpora",
	Long: `marianalyzer ingests PDF, DOCX, XLSX and plain-text documents,
extracts typed patterns (requirements, risks, constraints, success and
failure points) with a local LLM, clusters them into recurring families
and answers natural-language questions with citations.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Services aggregates the driving ports the CLI depends on.
type Services struct {
	Ingest    driving.IngestService
	Index     driving.IndexService
	Extract   driving.ExtractService
	Aggregate driving.AggregateService
	Answer    driving.AnswerService
	Status    driving.StatusService
}

// Execute wires the services into the command tree and runs it with the
// given context. Cancelling the context aborts long-running commands.
func Execute(ctx context.Context, v string, services Services) error {
	version = v
	ingestService = services.Ingest
	indexService = services.Index
	extractService = services.Extract
	aggregateService = services.Aggregate
	answerService = services.Answer
	statusService = services.Status
	return rootCmd.ExecuteContext(ctx)
}
