// Package tools provides the MCP tool surface of the ontology engine.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-engine/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-engine/pkg/logging"
)

// Error codes carried in the uniform failure envelope.
const (
	codeNotFound            = "not_found"
	codeAlreadyDeleted      = "already_deleted"
	codeNoFieldsToUpdate    = "no_fields_to_update"
	codeNoCandidates        = "no_candidates"
	codeClassificationParse = "classification_parse_error"
	codeInvalidParameters   = "invalid_parameters"
	codeStorageFailure      = "storage_failure"
)

// newSuccessResult wraps payload in the uniform success envelope.
func newSuccessResult(payload map[string]any, message string) (*mcp.CallToolResult, error) {
	payload["success"] = true
	payload["message"] = message

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// newFailureResult builds the uniform failure envelope. Failures are
// returned as structured tool results, never as raw protocol errors.
func newFailureResult(code, message string) *mcp.CallToolResult {
	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}
	jsonBytes, _ := json.Marshal(payload)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// failureFromError converts an internal error into the failure envelope,
// mapping sentinel errors to stable codes. Anything unrecognized is a
// storage failure with its message scrubbed of credentials.
func failureFromError(err error, message string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return newFailureResult(codeNotFound, message)
	case errors.Is(err, apperrors.ErrAlreadyDeleted):
		return newFailureResult(codeAlreadyDeleted, message)
	case errors.Is(err, apperrors.ErrNoFieldsToUpdate):
		return newFailureResult(codeNoFieldsToUpdate, "No update parameters provided")
	case errors.Is(err, apperrors.ErrNoCandidates):
		return newFailureResult(codeNoCandidates, "No ontologies available for selection")
	case errors.Is(err, apperrors.ErrClassificationParse):
		return newFailureResult(codeClassificationParse, logging.SanitizeError(err))
	default:
		return newFailureResult(codeStorageFailure, fmt.Sprintf("%s: %s", message, logging.SanitizeError(err)))
	}
}

// hasArgument reports whether the caller supplied the parameter at all,
// distinguishing "not sent" from "sent as the zero value".
func hasArgument(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

func getOptionalString(req mcp.CallToolRequest, key, defaultVal string) string {
	if val, ok := req.GetArguments()[key].(string); ok {
		return val
	}
	return defaultVal
}

func getOptionalInt(req mcp.CallToolRequest, key string, defaultVal int) int {
	// JSON numbers arrive as float64.
	if val, ok := req.GetArguments()[key].(float64); ok {
		return int(val)
	}
	return defaultVal
}

func getOptionalBool(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	if val, ok := req.GetArguments()[key].(bool); ok {
		return val
	}
	return defaultVal
}

func getObject(req mcp.CallToolRequest, key string) (map[string]any, bool) {
	val, ok := req.GetArguments()[key].(map[string]any)
	return val, ok
}

func getStringSlice(req mcp.CallToolRequest, key string) ([]string, bool) {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
