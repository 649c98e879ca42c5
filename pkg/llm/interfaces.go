// Package llm provides clients for the external classification model.
package llm

import "context"

// LLMClient is the single-exchange contract the classifier depends on.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse performs one chat completion exchange and returns
	// the raw response text.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure both client implementations satisfy LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
)
