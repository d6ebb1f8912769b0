package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_messages_processed_total",
		Help: "The total number of user messages processed",
	}, []string{"status"})

	MessageHandlingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_message_handling_duration_seconds",
		Help:    "End-to-end duration of handling a user message",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	TaskClassifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_task_classifications_total",
		Help: "Total number of task classifications by category",
	}, []string{"category"})

	// LLM token usage metrics
	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_llm_tokens_prompt_total",
		Help: "Total number of prompt tokens used",
	}, []string{"provider", "model", "task"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_llm_tokens_completion_total",
		Help: "Total number of completion tokens used",
	}, []string{"provider", "model", "task"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"provider", "model", "task", "status"})

	// LLM fallback and health metrics
	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_llm_fallbacks_total",
		Help: "Total number of LLM fallback events",
	}, []string{"from_provider", "to_provider", "task"})

	LLMProviderUnhealthy = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_llm_provider_unhealthy_total",
		Help: "Total number of times a provider was marked unhealthy",
	}, []string{"provider", "reason"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assistant_llm_provider_available",
		Help: "Whether LLM provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})

	LLMAllProvidersExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_llm_all_providers_exhausted_total",
		Help: "Total number of requests where every provider in the chain failed",
	}, []string{"task"})

	// LLM latency by provider and task
	LLMRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assistant_llm_request_latency_seconds",
		Help:    "Latency of LLM requests by provider and task",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider", "model", "task"})

	// LLM estimated costs (in millicents to avoid floating point issues)
	LLMEstimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_llm_estimated_cost_millicents_total",
		Help: "Estimated LLM cost in millicents (0.001 cents)",
	}, []string{"provider", "model", "task"})

	// Embedding metrics
	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_embedding_requests_total",
		Help: "Total number of embedding requests",
	}, []string{"provider", "model", "status"})

	EmbeddingTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_embedding_tokens_total",
		Help: "Total number of tokens processed for embeddings",
	}, []string{"provider", "model"})

	EmbeddingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assistant_embedding_latency_seconds",
		Help:    "Latency of embedding requests by provider",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider", "model"})

	EmbeddingEstimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_embedding_estimated_cost_millicents_total",
		Help: "Estimated embedding cost in millicents (0.001 cents)",
	}, []string{"provider", "model"})

	EmbeddingProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assistant_embedding_provider_available",
		Help: "Whether embedding provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})

	// Memory metrics
	MemoryWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_memory_writes_total",
		Help: "Total number of memory record writes",
	}, []string{"kind", "status"})

	MemorySearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_memory_searches_total",
		Help: "Total number of memory searches by backend",
	}, []string{"backend"})

	MemorySearchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_memory_search_fallbacks_total",
		Help: "Total number of vector searches that fell back to keyword search",
	})

	// Context assembly metrics
	ContextTokens = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_context_tokens",
		Help:    "Token size of assembled prompt contexts",
		Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000},
	})

	ContextTruncations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_context_truncations_total",
		Help: "Total number of context sections truncated to fit the token budget",
	}, []string{"section"})
)
