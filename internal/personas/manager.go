package personas

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// DefaultPersonaID is used when a user has no preference stored.
const DefaultPersonaID = "choy"

// profileStore persists per-user persona preferences.
type profileStore interface {
	SetPreferredPersona(ctx context.Context, userID int64, personaID string) error
}

// Manager resolves personas and tracks per-user preferences. Persona
// definitions are immutable after construction; preferences are stored in
// the profile store and handed in by the caller on lookup.
type Manager struct {
	personas  map[string]Persona
	defaultID string
	profiles  profileStore
	logger    *zerolog.Logger
}

// NewManager loads embedded personas plus any overrides from dir (empty dir
// skips overrides) and returns a manager with the given default persona.
func NewManager(dir, defaultID string, profiles profileStore, logger *zerolog.Logger) (*Manager, error) {
	personas, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if dir != "" {
		if err := loadDir(dir, personas); err != nil {
			return nil, err
		}
	}

	if defaultID == "" {
		defaultID = DefaultPersonaID
	}

	if _, ok := personas[defaultID]; !ok {
		return nil, fmt.Errorf("default persona %q is not defined", defaultID)
	}

	return &Manager{
		personas:  personas,
		defaultID: defaultID,
		profiles:  profiles,
		logger:    logger,
	}, nil
}

// Get returns the persona with the given id, or the default persona when
// the id is empty or unknown.
func (m *Manager) Get(id string) Persona {
	if p, ok := m.personas[id]; ok {
		return p
	}

	return m.personas[m.defaultID]
}

// Exists reports whether a persona id is defined.
func (m *Manager) Exists(id string) bool {
	_, ok := m.personas[id]

	return ok
}

// List returns all personas sorted by id.
func (m *Manager) List() []Persona {
	ids := make([]string, 0, len(m.personas))
	for id := range m.personas {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	list := make([]Persona, 0, len(ids))
	for _, id := range ids {
		list = append(list, m.personas[id])
	}

	return list
}

// Switch validates the persona id and persists it as the user's preference.
func (m *Manager) Switch(ctx context.Context, userID int64, id string) (Persona, error) {
	p, ok := m.personas[id]
	if !ok {
		return Persona{}, fmt.Errorf("unknown persona %q", id)
	}

	if err := m.profiles.SetPreferredPersona(ctx, userID, id); err != nil {
		return Persona{}, fmt.Errorf("persist persona preference: %w", err)
	}

	m.logger.Info().
		Int64("user_id", userID).
		Str("persona", id).
		Msg("switched persona")

	return p, nil
}

// FailureMessage returns the persona-styled message shown when all
// providers are exhausted.
func (m *Manager) FailureMessage(id string) string {
	return m.Get(id).FailureMessage
}
