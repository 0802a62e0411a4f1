package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

func TestServer_handlePatternTypesResource(t *testing.T) {
	server, err := NewServer(&Ports{Answer: &mockAnswerService{}})
	require.NoError(t, err)

	req := &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uriScheme + "pattern-types"},
	}

	result, err := server.handlePatternTypesResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)

	content := result.Contents[0]
	assert.Equal(t, uriScheme+"pattern-types", content.URI)
	assert.Equal(t, "application/json", content.MIMEType)

	var types []string
	require.NoError(t, json.Unmarshal([]byte(content.Text), &types))
	require.Len(t, types, len(domain.PatternTypes))
	for i, pt := range domain.PatternTypes {
		assert.Equal(t, string(pt), types[i])
	}
}
