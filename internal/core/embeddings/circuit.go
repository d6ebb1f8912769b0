package embeddings

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrCircuitBreakerOpen indicates the circuit breaker is open.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreaker trips after a streak of consecutive failures and closes
// again once the reset window has passed.
type CircuitBreaker struct {
	mu         sync.Mutex
	threshold  int
	resetAfter time.Duration
	streak     int
	reopenAt   time.Time
	logger     *zerolog.Logger
}

// NewCircuitBreaker creates a circuit breaker with the given configuration.
func NewCircuitBreaker(cfg CircuitBreakerConfig, logger *zerolog.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:  cfg.Threshold,
		resetAfter: cfg.ResetAfter,
		logger:     logger,
	}
}

// CheckCircuit returns ErrCircuitBreakerOpen while the circuit is open.
func (cb *CircuitBreaker) CheckCircuit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if time.Now().Before(cb.reopenAt) {
		return fmt.Errorf("%w until %v", ErrCircuitBreakerOpen, cb.reopenAt)
	}

	return nil
}

// RecordSuccess breaks the failure streak.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.streak = 0
}

// RecordFailure counts a failure and opens the circuit when the streak
// reaches the threshold.
func (cb *CircuitBreaker) RecordFailure(provider ProviderName) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.streak++
	if cb.streak < cb.threshold {
		return
	}

	cb.reopenAt = time.Now().Add(cb.resetAfter)

	if cb.logger != nil {
		cb.logger.Warn().
			Str("provider", string(provider)).
			Int("consecutive_failures", cb.streak).
			Time("reopen_at", cb.reopenAt).
			Msg("embedding circuit breaker opened")
	}
}

// Reset closes the circuit and clears the failure streak.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.streak = 0
	cb.reopenAt = time.Time{}
}
