package embeddings

import (
	"context"
	"time"
)

// ProviderName identifies an embedding backend.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI ProviderName = "openai"
	ProviderMock   ProviderName = "mock"
)

// Default dimensions for embeddings (matches the vector_entries schema).
const DefaultDimensions = 1536

// Circuit breaker constants.
const defaultCircuitThreshold = 5

// Shared error format strings.
const errRateLimiterFmt = "rate limiter: %w"

// EmbeddingResult contains the embedding vector and metadata.
type EmbeddingResult struct {
	Vector     []float32
	Dimensions int
	Provider   ProviderName
}

// Provider generates embeddings against a single backend.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// Model returns the model identifier, used for metrics.
	Model() string

	// GetEmbedding generates an embedding for the given text.
	GetEmbedding(ctx context.Context, text string) (EmbeddingResult, error)
}

// CircuitBreakerConfig defines circuit breaker settings.
type CircuitBreakerConfig struct {
	Threshold  int           // Number of failures before opening circuit
	ResetAfter time.Duration // Time before attempting recovery
}

// DefaultCircuitBreakerConfig returns sensible defaults for circuit breaker.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  defaultCircuitThreshold,
		ResetAfter: time.Minute,
	}
}
