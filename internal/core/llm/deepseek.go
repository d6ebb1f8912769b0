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

// DeepSeek model constants. DeepSeek exposes an OpenAI-compatible API, so
// the provider reuses the go-openai client with a custom base URL.
const (
	defaultDeepSeekModel   = "deepseek-chat"
	defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"
)

// DeepSeek errors.
var ErrDeepSeekEmptyResponse = errors.New("empty completion response from deepseek")

// deepseekProvider implements the Provider interface for DeepSeek.
type deepseekProvider struct {
	client      *openai.Client
	model       string
	apiKey      string
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// DeepSeekConfig holds configuration for the DeepSeek provider.
type DeepSeekConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	RateLimit int // Requests per second
}

// NewDeepSeekProvider creates a new DeepSeek LLM provider.
func NewDeepSeekProvider(cfg DeepSeekConfig, logger *zerolog.Logger) Provider {
	if cfg.Model == "" {
		cfg.Model = defaultDeepSeekModel
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultDeepSeekBaseURL
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &deepseekProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), rateLimiterBurst),
	}
}

// Name returns the provider identifier.
func (p *deepseekProvider) Name() ProviderName {
	return ProviderDeepSeek
}

// IsAvailable returns true if the provider is configured.
func (p *deepseekProvider) IsAvailable() bool {
	return p.apiKey != "" && p.apiKey != llmAPIKeyMock
}

// Priority returns the provider priority.
func (p *deepseekProvider) Priority() int {
	return PrioritySecondFallback
}

// Complete executes a single chat completion request.
func (p *deepseekProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
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
		return CompletionResponse{}, fmt.Errorf(errDeepSeekCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return CompletionResponse{}, ErrDeepSeekEmptyResponse
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	return CompletionResponse{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            model,
		Provider:         ProviderDeepSeek,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
