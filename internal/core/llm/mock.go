package llm

import (
	"context"
	"fmt"
	"strings"
)

// Mock response sizing.
const (
	mockPromptCharsPerToken = 4
	mockCompletionTokens    = 20
	mockModelName           = "mock-1"
)

// mockProvider implements the Provider interface for development and tests.
// It never fails, so the bot stays usable without any API keys.
type mockProvider struct{}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() Provider {
	return &mockProvider{}
}

// Ensure mockProvider implements the Provider interface.
var _ Provider = (*mockProvider)(nil)

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// IsAvailable returns true as mock is always available.
func (p *mockProvider) IsAvailable() bool {
	return true
}

// Priority returns the provider priority.
func (p *mockProvider) Priority() int {
	return PriorityMock
}

// Complete returns a canned response echoing a snippet of the prompt.
func (p *mockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	snippet := req.Prompt
	if len(snippet) > 80 {
		snippet = snippet[:80]
	}

	snippet = strings.TrimSpace(snippet)

	return CompletionResponse{
		Text:             fmt.Sprintf("[mock] I heard you say: %q. Configure an LLM API key for real answers.", snippet),
		Model:            mockModelName,
		Provider:         ProviderMock,
		PromptTokens:     len(req.Prompt) / mockPromptCharsPerToken,
		CompletionTokens: mockCompletionTokens,
	}, nil
}
