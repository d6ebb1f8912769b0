package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderDeepSeek  ProviderName = "deepseek"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityPrimary        = 100 // Primary provider (OpenAI)
	PriorityFallback       = 50  // First fallback (Anthropic)
	PrioritySecondFallback = 25  // Second fallback (DeepSeek)
	PriorityMock           = 0   // Mock provider for testing
)

// knownProviders is the set of provider names routing chains may reference.
//
//nolint:gochecknoglobals
var knownProviders = map[ProviderName]struct{}{
	ProviderOpenAI:    {},
	ProviderAnthropic: {},
	ProviderDeepSeek:  {},
	ProviderMock:      {},
}

// CompletionRequest is a single completion call to a provider.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
}

// CompletionResponse is the result of a successful completion call.
type CompletionResponse struct {
	Text             string
	Model            string
	Provider         ProviderName
	PromptTokens     int
	CompletionTokens int
}

// Provider defines the interface for LLM providers. All providers expose the
// same completion surface so the failover loop can treat them uniformly.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	// Complete executes a single completion request.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
