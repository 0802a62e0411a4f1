package driving

import (
	"context"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

// IngestStats reports the outcome of an ingestion run.
// Per-file failures are counted, not fatal.
type IngestStats struct {
	TotalFiles int
	Successful int
	Failed     int
	Skipped    int
}

// IngestService ingests documents from a folder into the corpus.
type IngestService interface {
	// IngestFolder parses every supported file under folder and
	// persists the resulting documents, chunks and headings.
	IngestFolder(ctx context.Context, folder string, recursive bool) (IngestStats, error)
}

// IndexService builds the retrieval indexes from the persisted corpus.
type IndexService interface {
	// BuildLexical builds and persists the lexical index.
	BuildLexical(ctx context.Context) error

	// BuildVector builds the vector index namespace.
	BuildVector(ctx context.Context) error
}

// ExtractStats reports the outcome of an extraction run. Skipped counts
// chunks excluded by the keyword pre-filter or the confidence threshold;
// policy filtering is observable, never silent.
type ExtractStats struct {
	Processed int
	Extracted int
	Skipped   int
	Failed    int
}

// ExtractService extracts typed patterns from the chunk corpus.
type ExtractService interface {
	// Extract runs a single-type extraction pass.
	Extract(ctx context.Context, t domain.PatternType) (ExtractStats, error)
}

// AggregateStats reports the outcome of a family-building run.
type AggregateStats struct {
	FamiliesCreated int
	Clustered       int
	Skipped         int
}

// AggregateService clusters extracted patterns into families.
type AggregateService interface {
	// Aggregate rebuilds families for the given pattern type.
	Aggregate(ctx context.Context, t domain.PatternType) (AggregateStats, error)
}

// StatusReport summarises the corpus and extraction state.
type StatusReport struct {
	Documents int
	Chunks    int
	Vectors   int
	Patterns  map[domain.PatternType]int
	Families  map[domain.PatternType]int
}

// StatusService reports corpus statistics.
type StatusService interface {
	// Status gathers counts from the metadata stores and the vector
	// index.
	Status(ctx context.Context) (*StatusReport, error)
}

// AskOptions configures question answering.
type AskOptions struct {
	// TopK is the number of retrieval results or patterns to consider.
	TopK int

	// TypeHint forces the pattern-specific path for the given type.
	TypeHint domain.PatternType
}

// AnswerService answers natural-language questions over the corpus.
type AnswerService interface {
	// Answer classifies the question and routes it to the
	// comparative, pattern-specific, family or general path.
	Answer(ctx context.Context, question string, opts AskOptions) (*domain.QueryResponse, error)

	// Retrieve exposes raw hybrid retrieval for callers that format
	// their own answers.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error)
}
