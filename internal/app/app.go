// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies: the LLM provider registry,
// the embedding client, layered memory, the context assembler, the persona
// manager, and the Telegram bot loop.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/assistant-bot/internal/contextbuilder"
	"github.com/lueurxax/assistant-bot/internal/core/embeddings"
	"github.com/lueurxax/assistant-bot/internal/core/llm"
	"github.com/lueurxax/assistant-bot/internal/memory"
	"github.com/lueurxax/assistant-bot/internal/personas"
	"github.com/lueurxax/assistant-bot/internal/platform/config"
	"github.com/lueurxax/assistant-bot/internal/platform/observability"
	db "github.com/lueurxax/assistant-bot/internal/storage"
	"github.com/lueurxax/assistant-bot/internal/telegrambot"
)

const errBotInit = "bot initialization failed: %w"

// App holds the application dependencies and provides methods to run the bot.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunBot runs the assistant bot loop until the context is canceled.
func (a *App) RunBot(ctx context.Context) error {
	a.logger.Info().Msg("Starting bot mode")

	if !a.cfg.HasLLMProvider() {
		a.logger.Warn().Msg("no LLM API keys configured, replies come from the mock provider")
	}

	if !a.cfg.HasEmbeddingProvider() {
		a.logger.Warn().Msg("no embedding API key configured, memory search degrades to keyword matching")
	}

	llmClient, err := llm.New(a.cfg, a.database, a.logger)
	if err != nil {
		return fmt.Errorf("llm client init: %w", err)
	}

	// Without an embedding provider the store indexes nothing and serves
	// searches from keyword matches over facts.
	var embedder embeddings.Client
	if a.cfg.HasEmbeddingProvider() {
		embedder = a.newEmbeddingClient()
	}

	mem := memory.NewStore(a.database, embedder, a.logger)

	personaMgr, err := personas.NewManager(a.cfg.PersonaDir, a.cfg.DefaultPersona, a.database, a.logger)
	if err != nil {
		return fmt.Errorf("persona manager init: %w", err)
	}

	assembler := contextbuilder.New(contextbuilder.NewEstimator(), a.cfg.ContextMaxTokens)

	b, err := telegrambot.New(a.cfg, a.database, llmClient, mem, personaMgr, assembler, a.logger)
	if err != nil {
		return fmt.Errorf(errBotInit, err)
	}

	llmClient.SetBudgetAlertCallback(func(alert llm.BudgetAlert) {
		b.SendNotification(fmt.Sprintf(
			"⚠️ LLM budget %s: %d of %d daily tokens used (%.0f%%)",
			alert.Level, alert.DailyTokens, alert.BudgetLimit, alert.Percentage*100,
		))
	})

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bot run: %w", err)
	}

	return nil
}

// newEmbeddingClient creates the embedding client used for memory indexing.
func (a *App) newEmbeddingClient() embeddings.Client {
	logger := a.logger.With().Str("component", "embeddings").Logger()

	return embeddings.NewClient(embeddings.Config{
		OpenAIAPIKey:     a.cfg.OpenAIAPIKey,
		OpenAIModel:      a.cfg.OpenAIEmbeddingModel,
		OpenAIDimensions: a.cfg.OpenAIEmbeddingDimensions,
		OpenAIRateLimit:  a.cfg.RateLimitRPS,
		CircuitBreakerConfig: embeddings.CircuitBreakerConfig{
			Threshold:  a.cfg.EmbeddingCircuitThreshold,
			ResetAfter: a.cfg.EmbeddingCircuitTimeout,
		},
		TargetDimensions: a.cfg.OpenAIEmbeddingDimensions,
	}, &logger)
}
