package domain

// QuestionKind is the classification outcome for an incoming question.
// The kinds are mutually exclusive; comparative has the highest priority.
type QuestionKind string

// Question classification outcomes.
const (
	QuestionComparative QuestionKind = "comparative"
	QuestionPattern     QuestionKind = "pattern"
	QuestionFamily      QuestionKind = "family"
	QuestionGeneral     QuestionKind = "general"
)

// Evidence is a single supporting item in a query response.
type Evidence struct {
	// SourceID identifies the chunk, pattern or family backing this item.
	SourceID string `json:"source_id"`

	// Text is the supporting text snippet.
	Text string `json:"text"`

	// Citation locates the evidence in the corpus. For patterns this
	// carries the confidence instead.
	Citation string `json:"citation,omitempty"`

	// Confidence is the extraction confidence for pattern evidence.
	Confidence float64 `json:"confidence,omitempty"`

	// Relevance is the retrieval or ranking score.
	Relevance float64 `json:"relevance_score"`
}

// QueryResponse is a structured, cited answer to a question.
type QueryResponse struct {
	// Query echoes the original question.
	Query string `json:"query"`

	// Answer is the formatted answer text.
	Answer string `json:"answer"`

	// Evidence lists the supporting items.
	Evidence []Evidence `json:"evidence"`

	// Metadata carries routing and statistics information.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScoredChunk pairs a chunk with a retrieval score.
type ScoredChunk struct {
	// Chunk is the retrieved chunk. Text may be the TextUnavailable
	// sentinel when only vector metadata was available.
	Chunk Chunk

	// Score is the fused or single-source relevance score.
	Score float64
}

// TextUnavailable marks a chunk whose text could not be hydrated from
// any source. Fused results containing it are a documented degradation,
// not an error.
const TextUnavailable = "[text unavailable]"
