package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// OpenAI model constants.
const (
	defaultOpenAIModel = "gpt-4o-mini"
)

// OpenAI errors.
var ErrOpenAIEmptyResponse = errors.New("empty completion response from openai")

// openaiProvider implements the Provider interface for OpenAI.
type openaiProvider struct {
	client      *openai.Client
	model       string
	apiKey      string
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	RateLimit int // Requests per second
}

// NewOpenAIProvider creates a new OpenAI LLM provider.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zerolog.Logger) Provider {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}

	return &openaiProvider{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), rateLimiterBurst),
	}
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

// IsAvailable returns true if the provider is configured.
func (p *openaiProvider) IsAvailable() bool {
	return p.apiKey != "" && p.apiKey != llmAPIKeyMock
}

// Priority returns the provider priority.
func (p *openaiProvider) Priority() int {
	return PriorityPrimary
}

// Complete executes a single chat completion request.
func (p *openaiProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return CompletionResponse{}, fmt.Errorf(errRateLimiter, err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf(errOpenAIChatCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return CompletionResponse{}, ErrOpenAIEmptyResponse
	}

	return CompletionResponse{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            resp.Model,
		Provider:         ProviderOpenAI,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
