package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of retrieval results to consider (default 20)"`
	Type     string `json:"type,omitempty" jsonschema:"optional pattern type hint (requirement, risk, constraint, success_point, failure_point)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string           `json:"answer"`
	Evidence []EvidenceOutput `json:"evidence"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

// EvidenceOutput represents a single piece of supporting evidence.
type EvidenceOutput struct {
	SourceID  string  `json:"source_id"`
	Text      string  `json:"text"`
	Citation  string  `json:"citation,omitempty"`
	Relevance float64 `json:"relevance"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query for hybrid retrieval"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Citation   string  `json:"citation"`
	Score      float64 `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ingested document corpus with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Run hybrid keyword and semantic retrieval over indexed chunks",
	}, s.handleSearch)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	opts := driving.AskOptions{TopK: input.TopK}
	if input.Type != "" {
		t, err := domain.ParsePatternType(input.Type)
		if err != nil {
			return nil, AskOutput{}, err
		}
		opts.TypeHint = t
	}

	resp, err := s.ports.Answer.Answer(ctx, input.Question, opts)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:   resp.Answer,
		Evidence: make([]EvidenceOutput, len(resp.Evidence)),
		Metadata: resp.Metadata,
	}
	for i, ev := range resp.Evidence {
		output.Evidence[i] = EvidenceOutput{
			SourceID:  ev.SourceID,
			Text:      ev.Text,
			Citation:  ev.Citation,
			Relevance: ev.Relevance,
		}
	}

	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	results, err := s.ports.Answer.Retrieve(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ChunkID:    results[i].Chunk.ID,
			DocumentID: results[i].Chunk.DocumentID,
			Text:       results[i].Chunk.Text,
			Citation:   results[i].Chunk.Citation,
			Score:      results[i].Score,
		}
	}

	return nil, output, nil
}
