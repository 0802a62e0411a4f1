package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

// uriScheme is the custom URI scheme for marianalyzer resources.
const uriScheme = "marianalyzer://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "pattern-types",
		Name:        "pattern-types",
		Description: "The closed set of pattern types available for extraction and querying",
		MIMEType:    "application/json",
	}, s.handlePatternTypesResource)
}

// handlePatternTypesResource returns the closed pattern type set.
func (s *Server) handlePatternTypesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	types := make([]string, len(domain.PatternTypes))
	for i, t := range domain.PatternTypes {
		types[i] = string(t)
	}

	data, err := json.MarshalIndent(types, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling pattern types: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
