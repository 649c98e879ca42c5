package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-engine/pkg/apperrors"
)

// callTool invokes a registered tool over the JSON-RPC surface and returns
// the decoded envelope plus the isError flag from the protocol result.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (map[string]any, bool) {
	t.Helper()

	argsJSON, err := json.Marshal(args)
	require.NoError(t, err)

	msg := fmt.Sprintf(
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":%q,"arguments":%s}}`,
		name, argsJSON)

	result := s.HandleMessage(context.Background(), []byte(msg))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	require.Nil(t, response.Error, "tool call should not produce a protocol error")
	require.NotEmpty(t, response.Result.Content)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &envelope))
	return envelope, response.Result.IsError
}

// listToolNames returns the set of registered tool names.
func listToolNames(t *testing.T, s *server.MCPServer) map[string]bool {
	t.Helper()

	result := s.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))

	names := make(map[string]bool)
	for _, tool := range response.Result.Tools {
		names[tool.Name] = true
	}
	return names
}

func TestNewSuccessResult(t *testing.T) {
	result, err := newSuccessResult(map[string]any{"ontology_id": 7}, "stored")
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	var envelope map[string]any
	raw := resultText(t, result)
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))

	assert.Equal(t, true, envelope["success"])
	assert.Equal(t, "stored", envelope["message"])
	assert.Equal(t, float64(7), envelope["ontology_id"])
}

func TestNewFailureResult(t *testing.T) {
	result := newFailureResult(codeNotFound, "No ontology found with ID 99")
	assert.True(t, result.IsError)

	var envelope map[string]any
	raw := resultText(t, result)
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))

	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, codeNotFound, envelope["error"])
	assert.Equal(t, "No ontology found with ID 99", envelope["message"])
}

func TestFailureFromError_SentinelMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"not found", apperrors.ErrNotFound, codeNotFound},
		{"already deleted", apperrors.ErrAlreadyDeleted, codeAlreadyDeleted},
		{"no fields", apperrors.ErrNoFieldsToUpdate, codeNoFieldsToUpdate},
		{"no candidates", apperrors.ErrNoCandidates, codeNoCandidates},
		{"parse failure", fmt.Errorf("%w: bad json", apperrors.ErrClassificationParse), codeClassificationParse},
		{"wrapped not found", fmt.Errorf("lookup: %w", apperrors.ErrNotFound), codeNotFound},
		{"unknown", errors.New("connection refused"), codeStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := failureFromError(tt.err, "operation failed")
			assert.True(t, result.IsError)

			var envelope map[string]any
			raw := resultText(t, result)
			require.NoError(t, json.Unmarshal([]byte(raw), &envelope))
			assert.Equal(t, tt.wantCode, envelope["error"])
		})
	}
}

func TestFailureFromError_ScrubsCredentials(t *testing.T) {
	err := errors.New("connect failed: postgres://kivor:hunter2@db:5432/kivor_ticketing")
	result := failureFromError(err, "Failed to store ontology")

	raw := resultText(t, result)
	assert.NotContains(t, raw, "hunter2")
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content should be text")
	return tc.Text
}
