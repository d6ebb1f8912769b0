package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/assistant-bot/internal/platform/config"
)

// Client is the completion surface the rest of the bot talks to. It routes
// requests through the provider chain with failover and budget tracking.
type Client interface {
	// Complete runs a completion for the given task category.
	Complete(ctx context.Context, task TaskType, req CompletionRequest) (CompletionResponse, error)

	// Statuses returns the state of all registered providers.
	Statuses() []ProviderStatus

	// GetBudgetStatus returns the daily token usage, limit, and percentage.
	GetBudgetStatus() (dailyTokens, dailyLimit int64, percentage float64)

	// SetBudgetAlertCallback sets the callback fired on budget thresholds.
	SetBudgetAlertCallback(callback func(alert BudgetAlert))
}

// service wires the registry, failover invoker, and budget tracker together.
type service struct {
	registry           *Registry
	invoker            *Invoker
	budget             *BudgetTracker
	defaultMaxTokens   int
	defaultTemperature float32
}

// New creates an LLM client with multi-provider fallback. Providers are
// registered for each configured API key; without any key a mock provider
// keeps the bot functional.
func New(cfg *config.Config, usageStore UsageStore, logger *zerolog.Logger) (Client, error) {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	registry, err := NewRegistry(cfg.ProviderCooldown, logger)
	if err != nil {
		return nil, err
	}

	budget := NewBudgetTracker(cfg.LLMDailyTokenBudget, logger)
	recorder := NewUsageRecorder(budget, usageStore, logger)

	if err := registerProviders(registry, cfg, logger); err != nil {
		return nil, err
	}

	temperature := cfg.LLMTemperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	return &service{
		registry:           registry,
		invoker:            NewInvoker(registry, recorder, cfg.ProviderTimeout, logger),
		budget:             budget,
		defaultMaxTokens:   cfg.ProviderMaxTokens,
		defaultTemperature: temperature,
	}, nil
}

// registerProviders registers all configured LLM providers with the registry.
func registerProviders(registry *Registry, cfg *config.Config, logger *zerolog.Logger) error {
	if cfg.OpenAIAPIKey != "" && cfg.OpenAIAPIKey != llmAPIKeyMock {
		p := NewOpenAIProvider(OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.OpenAIModel,
			RateLimit: cfg.RateLimitRPS,
		}, logger)
		if err := registry.Register(p); err != nil {
			return err
		}
	}

	if cfg.AnthropicAPIKey != "" {
		p := NewAnthropicProvider(AnthropicConfig{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.AnthropicModel,
			RateLimit: cfg.RateLimitRPS,
		}, logger)
		if err := registry.Register(p); err != nil {
			return err
		}
	}

	if cfg.DeepSeekAPIKey != "" {
		p := NewDeepSeekProvider(DeepSeekConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			BaseURL:   cfg.DeepSeekBaseURL,
			Model:     cfg.DeepSeekModel,
			RateLimit: cfg.RateLimitRPS,
		}, logger)
		if err := registry.Register(p); err != nil {
			return err
		}
	}

	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no LLM providers configured, using mock provider")

		return registry.Register(NewMockProvider())
	}

	return nil
}

// Complete implements Client.
func (s *service) Complete(ctx context.Context, task TaskType, req CompletionRequest) (CompletionResponse, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = s.defaultMaxTokens
	}

	if req.Temperature == 0 {
		req.Temperature = s.defaultTemperature
	}

	return s.invoker.Invoke(ctx, task, req)
}

// Statuses implements Client.
func (s *service) Statuses() []ProviderStatus {
	return s.registry.Statuses()
}

// GetBudgetStatus implements Client.
func (s *service) GetBudgetStatus() (dailyTokens, dailyLimit int64, percentage float64) {
	return s.budget.GetStatus()
}

// SetBudgetAlertCallback implements Client.
func (s *service) SetBudgetAlertCallback(callback func(alert BudgetAlert)) {
	s.budget.SetAlertCallback(callback)
}
