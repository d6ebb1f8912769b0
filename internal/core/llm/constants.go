package llm

import "time"

// Error message templates.
const (
	errRateLimiter          = "rate limiter: %w"
	errOpenAIChatCompletion = "openai chat completion: %w"
	errAnthropicMessage     = "anthropic message: %w"
	errDeepSeekCompletion   = "deepseek chat completion: %w"
)

// Model mapping strings.
const (
	llmAPIKeyMock = "mock"
)

// Log key strings.
const (
	logKeyProvider = "provider"
	logKeyTask     = "task"
)

// Request defaults.
const (
	defaultMaxTokens      = 1024
	defaultTemperature    = 0.7
	defaultAttemptTimeout = 30 * time.Second
	defaultCooldown       = time.Minute
	rateLimiterBurst      = 5
)

// Usage storage timeout.
const (
	usageStorageTimeout = 5 * time.Second
)

// Cost conversion.
const (
	usdToMillicents = 100000.0 // 1 USD = 100,000 millicents
)

// Request status for metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metric gauge values.
const (
	MetricValueAvailable   = 1.0
	MetricValueUnavailable = 0.0
)
