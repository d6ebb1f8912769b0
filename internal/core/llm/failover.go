package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lueurxax/assistant-bot/internal/platform/observability"
)

// Failover errors.
var ErrNoProvidersAvailable = errors.New("no LLM providers available")

// ProviderFailure records why a single provider attempt failed.
type ProviderFailure struct {
	Provider ProviderName
	Reason   string
}

// AllProvidersExhaustedError is returned when every provider in the chain
// failed. It carries exactly one failure entry per attempted provider.
type AllProvidersExhaustedError struct {
	Task     TaskType
	Failures []ProviderFailure
}

func (e *AllProvidersExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Provider, f.Reason))
	}

	return fmt.Sprintf("all LLM providers exhausted for task %q: %s", e.Task, strings.Join(parts, "; "))
}

// Invoker runs completion requests against a provider chain with bounded
// retries and fallback.
type Invoker struct {
	registry *Registry
	recorder UsageRecorder
	timeout  time.Duration
	logger   *zerolog.Logger
}

// NewInvoker creates an Invoker over the given registry.
func NewInvoker(registry *Registry, recorder UsageRecorder, timeout time.Duration, logger *zerolog.Logger) *Invoker {
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}

	return &Invoker{
		registry: registry,
		recorder: recorder,
		timeout:  timeout,
		logger:   logger,
	}
}

// Invoke runs the request against the task's provider chain. Each provider
// gets one attempt plus at most one retry on a transient failure; there is
// never a second pass over the chain. A provider that ends up failing is
// marked unhealthy; the first success marks its provider healthy and wins.
func (i *Invoker) Invoke(ctx context.Context, task TaskType, req CompletionRequest) (CompletionResponse, error) {
	providers := i.registry.List(task)
	if len(providers) == 0 {
		return CompletionResponse{}, ErrNoProvidersAvailable
	}

	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}

	var (
		failures     []ProviderFailure
		firstFailure ProviderName
	)

	for _, p := range providers {
		resp, err := i.attempt(ctx, p, task, req)
		if err != nil {
			if firstFailure == "" {
				firstFailure = p.Name()
			}

			failures = append(failures, ProviderFailure{Provider: p.Name(), Reason: err.Error()})

			i.registry.MarkUnhealthy(p.Name(), failureReason(err))
			i.recorder.RecordTokenUsage(string(p.Name()), "unknown", string(task), 0, 0, false)

			i.logger.Warn().
				Err(err).
				Str(logKeyProvider, string(p.Name())).
				Str(logKeyTask, string(task)).
				Msg("LLM provider failed, trying fallback")

			continue
		}

		i.registry.MarkHealthy(p.Name())
		i.recorder.RecordTokenUsage(string(p.Name()), resp.Model, string(task), resp.PromptTokens, resp.CompletionTokens, true)

		if firstFailure != "" {
			observability.LLMFallbacks.WithLabelValues(
				string(firstFailure),
				string(p.Name()),
				string(task),
			).Inc()

			i.logger.Info().
				Str(logKeyProvider, string(p.Name())).
				Str("from_provider", string(firstFailure)).
				Str(logKeyTask, string(task)).
				Msg("used fallback LLM provider")
		}

		return resp, nil
	}

	observability.LLMAllProvidersExhausted.WithLabelValues(string(task)).Inc()

	return CompletionResponse{}, &AllProvidersExhaustedError{Task: task, Failures: failures}
}

// attempt calls one provider with a per-attempt timeout, retrying once on a
// transient failure.
func (i *Invoker) attempt(ctx context.Context, p Provider, task TaskType, req CompletionRequest) (CompletionResponse, error) {
	resp, err := i.timedCall(ctx, p, task, req)
	if err == nil || !isTransient(err) {
		return resp, err
	}

	i.logger.Debug().
		Err(err).
		Str(logKeyProvider, string(p.Name())).
		Msg("transient LLM failure, retrying once")

	return i.timedCall(ctx, p, task, req)
}

// timedCall runs a single provider call under the attempt timeout and
// records its latency.
func (i *Invoker) timedCall(ctx context.Context, p Provider, task TaskType, req CompletionRequest) (CompletionResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()

	resp, err := p.Complete(attemptCtx, req)

	duration := time.Since(start)

	model := resp.Model
	if model == "" {
		model = "unknown"
	}

	observability.LLMRequestLatency.WithLabelValues(
		string(p.Name()),
		model,
		string(task),
	).Observe(duration.Seconds())

	if err != nil {
		return CompletionResponse{}, err
	}

	resp.Provider = p.Name()

	return resp, nil
}

// isTransient reports whether an error is worth a single immediate retry:
// timeouts, rate limits, and upstream 5xx responses.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}

	return false
}

// failureReason condenses an error into a low-cardinality label for metrics.
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case isTransient(err):
		return "transient"
	default:
		return "error"
	}
}
