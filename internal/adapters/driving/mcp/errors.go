// Package mcp provides an MCP (Model Context Protocol) server adapter
// for marianalyzer. It lets AI assistants ask questions over the ingested
// corpus and run raw hybrid retrieval.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
