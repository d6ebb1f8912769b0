package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Anthropic model constants.
const (
	ModelClaudeHaiku = "claude-haiku-4.5"

	defaultAnthropicModel = ModelClaudeHaiku

	contentTypeText = "text"
)

// anthropicProvider implements the Provider interface for Anthropic Claude.
type anthropicProvider struct {
	client      anthropic.Client
	model       string
	apiKey      string
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// AnthropicConfig holds configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	RateLimit int // Requests per second
}

// NewAnthropicProvider creates a new Anthropic LLM provider.
func NewAnthropicProvider(cfg AnthropicConfig, logger *zerolog.Logger) Provider {
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}

	return &anthropicProvider{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), rateLimiterBurst),
	}
}

// Name returns the provider identifier.
func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// IsAvailable returns true if the provider is configured.
func (p *anthropicProvider) IsAvailable() bool {
	return p.apiKey != "" && p.apiKey != llmAPIKeyMock
}

// Priority returns the provider priority.
func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

// Complete executes a single message request.
func (p *anthropicProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return CompletionResponse{}, fmt.Errorf(errRateLimiter, err)
	}

	// The system prompt travels inside the user message so the request shape
	// stays minimal across SDK versions.
	prompt := req.Prompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + prompt
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf(errAnthropicMessage, err)
	}

	return CompletionResponse{
		Text:             strings.TrimSpace(extractTextFromResponse(resp)),
		Model:            p.model,
		Provider:         ProviderAnthropic,
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// extractTextFromResponse extracts text content from an Anthropic response.
func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}
