package llm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/assistant-bot/internal/platform/observability"
)

// Registry errors.
var (
	ErrDuplicateProvider = errors.New("provider already registered")
	ErrUnknownProvider   = errors.New("routing chain references unknown provider")
)

// providerHealth tracks the health of a single provider. A provider marked
// unhealthy becomes eligible again once the cooldown has elapsed; eligibility
// is evaluated lazily against the clock, no background timers are involved.
type providerHealth struct {
	healthy        bool
	unhealthySince time.Time
	lastReason     string
}

// Registry manages LLM providers, their health state, and the per-task
// routing chains.
type Registry struct {
	mu         sync.RWMutex
	providers  map[ProviderName]Provider
	order      []ProviderName // Priority order (highest first)
	health     map[ProviderName]*providerHealth
	taskChains map[TaskType][]ProviderName
	cooldown   time.Duration
	now        func() time.Time
	logger     *zerolog.Logger
}

// NewRegistry creates a new provider registry with the default task chains.
func NewRegistry(cooldown time.Duration, logger *zerolog.Logger) (*Registry, error) {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}

	chains := DefaultTaskChains()
	if err := validateChains(chains); err != nil {
		return nil, err
	}

	return &Registry{
		providers:  make(map[ProviderName]Provider),
		order:      make([]ProviderName, 0),
		health:     make(map[ProviderName]*providerHealth),
		taskChains: chains,
		cooldown:   cooldown,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// validateChains rejects chains that reference provider names outside the
// known set. This is a startup failure, not a runtime one.
func validateChains(chains map[TaskType][]ProviderName) error {
	for task, chain := range chains {
		for _, name := range chain {
			if _, ok := knownProviders[name]; !ok {
				return fmt.Errorf("%w: %q in task %q", ErrUnknownProvider, name, task)
			}
		}
	}

	return nil
}

// Register adds a provider to the registry. Registering the same provider
// name twice is an error.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProvider, name)
	}

	r.providers[name] = p
	r.order = append(r.order, name)
	r.health[name] = &providerHealth{healthy: true}

	r.sortProvidersByPriority()

	available := MetricValueUnavailable
	if p.IsAvailable() {
		available = MetricValueAvailable
	}

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(available)

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Msg("registered LLM provider")

	return nil
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// MarkUnhealthy records a provider failure. The provider is skipped by List
// until the cooldown elapses. Marking an already unhealthy provider keeps
// the original unhealthySince timestamp.
func (r *Registry) MarkUnhealthy(name ProviderName, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.health[name]
	if !ok {
		return
	}

	if h.healthy {
		h.healthy = false
		h.unhealthySince = r.now()
	}

	h.lastReason = reason

	observability.LLMProviderUnhealthy.WithLabelValues(string(name), reason).Inc()
	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(MetricValueUnavailable)

	r.logger.Warn().
		Str(logKeyProvider, string(name)).
		Str("reason", reason).
		Msg("marked LLM provider unhealthy")
}

// MarkHealthy restores a provider after a successful call. Idempotent.
func (r *Registry) MarkHealthy(name ProviderName) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.health[name]
	if !ok {
		return
	}

	if !h.healthy {
		r.logger.Info().
			Str(logKeyProvider, string(name)).
			Msg("LLM provider recovered")
	}

	h.healthy = true
	h.unhealthySince = time.Time{}
	h.lastReason = ""

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(MetricValueAvailable)
}

// eligibleLocked reports whether a provider may receive traffic: healthy, or
// unhealthy but past its cooldown window.
func (r *Registry) eligibleLocked(name ProviderName) bool {
	h, ok := r.health[name]
	if !ok {
		return false
	}

	if h.healthy {
		return true
	}

	return r.now().Sub(h.unhealthySince) >= r.cooldown
}

// List returns the ordered provider chain for a task: the task's preferred
// providers first, then any remaining registered providers by priority.
// Unhealthy providers inside their cooldown are filtered out, but when that
// would leave nothing, the full chain is returned so callers still attempt
// every provider rather than failing outright.
func (r *Registry) List(task TaskType) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.chainForTaskLocked(task)

	eligible := make([]Provider, 0, len(names))
	all := make([]Provider, 0, len(names))

	for _, name := range names {
		p, ok := r.providers[name]
		if !ok || !p.IsAvailable() {
			continue
		}

		all = append(all, p)

		if r.eligibleLocked(name) {
			eligible = append(eligible, p)
		}
	}

	if len(eligible) == 0 {
		return all
	}

	return eligible
}

// chainForTaskLocked builds the full provider name order for a task.
func (r *Registry) chainForTaskLocked(task TaskType) []ProviderName {
	chain := r.taskChains[task]

	names := make([]ProviderName, 0, len(r.order))
	seen := make(map[ProviderName]bool, len(r.order))

	for _, name := range chain {
		if _, registered := r.providers[name]; registered && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	for _, name := range r.order {
		if !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	return names
}

// sortProvidersByPriority sorts providers by priority in descending order.
func (r *Registry) sortProvidersByPriority() {
	sort.SliceStable(r.order, func(i, j int) bool {
		pi := r.providers[r.order[i]].Priority()
		pj := r.providers[r.order[j]].Priority()

		return pi > pj
	})
}

// ProviderStatus holds status information for a provider.
type ProviderStatus struct {
	Name           ProviderName
	Priority       int
	Available      bool
	Healthy        bool
	UnhealthySince time.Time
	LastReason     string
}

// Statuses returns status information for all registered providers in
// priority order.
func (r *Registry) Statuses() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]ProviderStatus, 0, len(r.order))

	for _, name := range r.order {
		p := r.providers[name]
		h := r.health[name]

		statuses = append(statuses, ProviderStatus{
			Name:           name,
			Priority:       p.Priority(),
			Available:      p.IsAvailable(),
			Healthy:        h.healthy || r.eligibleLocked(name),
			UnhealthySince: h.unhealthySince,
			LastReason:     h.lastReason,
		})
	}

	return statuses
}

// setClock replaces the time source, used in tests.
func (r *Registry) setClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.now = now
}
