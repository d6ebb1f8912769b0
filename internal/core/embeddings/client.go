// Package embeddings generates text embeddings for memory indexing and
// semantic search. The configured provider sits behind a circuit breaker,
// and output vectors are normalized to the storage dimension.
package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Client is the embedding surface the rest of the codebase consumes.
type Client interface {
	// GetEmbedding generates an embedding for the given text. The returned
	// vector always has the configured target dimensions.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Config holds configuration for creating an embedding client.
type Config struct {
	// OpenAI settings
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIDimensions int
	OpenAIRateLimit  int

	// Circuit breaker settings
	CircuitBreakerConfig CircuitBreakerConfig

	// Target dimensions for output vectors
	TargetDimensions int
}

// client wraps a provider with a circuit breaker and metrics.
type client struct {
	provider Provider
	breaker  *CircuitBreaker
	target   int
	logger   *zerolog.Logger
}

var _ Client = (*client)(nil)

// NewClient creates an embedding client backed by the OpenAI provider.
// Callers without an API key should not construct a client at all; memory
// search then runs on keyword matching.
func NewClient(cfg Config, logger *zerolog.Logger) Client {
	if cfg.TargetDimensions == 0 {
		cfg.TargetDimensions = DefaultDimensions
	}

	if cfg.CircuitBreakerConfig.Threshold <= 0 {
		cfg.CircuitBreakerConfig = DefaultCircuitBreakerConfig()
	}

	provider := NewOpenAIProvider(OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		Dimensions: cfg.OpenAIDimensions,
		RateLimit:  cfg.OpenAIRateLimit,
	})

	return newClient(provider, cfg, logger)
}

func newClient(provider Provider, cfg Config, logger *zerolog.Logger) *client {
	return &client{
		provider: provider,
		breaker:  NewCircuitBreaker(cfg.CircuitBreakerConfig, logger),
		target:   cfg.TargetDimensions,
		logger:   logger,
	}
}

// GetEmbedding generates an embedding, padded or truncated to the target
// dimensions. While the circuit breaker is open it fails fast without
// calling the provider.
func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	name := string(c.provider.Name())
	model := c.provider.Model()

	if err := c.breaker.CheckCircuit(); err != nil {
		SetEmbeddingProviderAvailable(name, false)

		return nil, err
	}

	start := time.Now()
	result, err := c.provider.GetEmbedding(ctx, text)

	RecordEmbeddingLatency(name, model, time.Since(start))

	if err != nil {
		c.breaker.RecordFailure(c.provider.Name())
		RecordEmbeddingRequest(name, model, false)

		return nil, fmt.Errorf("get embedding: %w", err)
	}

	c.breaker.RecordSuccess()
	RecordEmbeddingRequest(name, model, true)
	RecordEmbeddingTokens(name, model, estimateTokens(text))
	SetEmbeddingProviderAvailable(name, true)

	return PadToTargetDimensions(result.Vector, c.target), nil
}

// PadToTargetDimensions pads or truncates a vector to the target dimensions.
// Zero padding does not change the angle between vectors, so cosine
// distances stay meaningful.
func PadToTargetDimensions(vec []float32, target int) []float32 {
	switch {
	case len(vec) == target:
		return vec
	case len(vec) > target:
		return vec[:target]
	default:
		padded := make([]float32, target)
		copy(padded, vec)

		return padded
	}
}
