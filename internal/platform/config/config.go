package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string  `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string  `env:"POSTGRES_DSN,required"`
	BotToken    string  `env:"BOT_TOKEN,required"`
	AdminIDs    []int64 `env:"ADMIN_IDS" envSeparator:","`
	HealthPort  int     `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// LLM providers
	OpenAIAPIKey    string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" envDefault:""`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4.5"`
	DeepSeekAPIKey  string `env:"DEEPSEEK_API_KEY" envDefault:""`
	DeepSeekBaseURL string `env:"DEEPSEEK_BASE_URL" envDefault:"https://api.deepseek.com/v1"`
	DeepSeekModel   string `env:"DEEPSEEK_MODEL" envDefault:"deepseek-chat"`
	RateLimitRPS    int    `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Failover behavior
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`
	ProviderCooldown  time.Duration `env:"PROVIDER_COOLDOWN" envDefault:"1m"`
	ProviderMaxTokens int           `env:"PROVIDER_MAX_TOKENS" envDefault:"1024"`
	LLMTemperature    float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`

	// Daily token budget (0 = unlimited)
	LLMDailyTokenBudget int64 `env:"LLM_DAILY_TOKEN_BUDGET" envDefault:"0"`

	// Embeddings
	OpenAIEmbeddingModel      string        `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	OpenAIEmbeddingDimensions int           `env:"OPENAI_EMBEDDING_DIMENSIONS" envDefault:"1536"`
	EmbeddingCircuitThreshold int           `env:"EMBEDDING_CIRCUIT_THRESHOLD" envDefault:"5"`
	EmbeddingCircuitTimeout   time.Duration `env:"EMBEDDING_CIRCUIT_TIMEOUT" envDefault:"1m"`

	// Prompt context assembly
	ContextMaxTokens    int `env:"CONTEXT_MAX_TOKENS" envDefault:"2000"`
	ContextRecentTurns  int `env:"CONTEXT_RECENT_TURNS" envDefault:"10"`
	ContextSemanticTopK int `env:"CONTEXT_SEMANTIC_TOP_K" envDefault:"5"`

	// Personas
	PersonaDir     string `env:"PERSONA_DIR" envDefault:""`
	DefaultPersona string `env:"DEFAULT_PERSONA" envDefault:"choy"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}

// HasLLMProvider reports whether at least one real LLM API key is configured.
func (c *Config) HasLLMProvider() bool {
	return c.OpenAIAPIKey != "" || c.AnthropicAPIKey != "" || c.DeepSeekAPIKey != ""
}

// HasEmbeddingProvider reports whether an embedding backend is configured.
func (c *Config) HasEmbeddingProvider() bool {
	return c.OpenAIAPIKey != ""
}
