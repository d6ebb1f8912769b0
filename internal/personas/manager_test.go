package personas

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

var errProfileStore = errors.New("profile store unavailable")

type fakeProfileStore struct {
	saved map[int64]string
	err   error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{saved: make(map[int64]string)}
}

func (f *fakeProfileStore) SetPreferredPersona(_ context.Context, userID int64, personaID string) error {
	if f.err != nil {
		return f.err
	}

	f.saved[userID] = personaID

	return nil
}

func newTestManager(t *testing.T, dir, defaultID string, profiles profileStore) *Manager {
	t.Helper()

	logger := zerolog.Nop()

	mgr, err := NewManager(dir, defaultID, profiles, &logger)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	return mgr
}

func TestNewManager_LoadsDefaults(t *testing.T) {
	mgr := newTestManager(t, "", "", newFakeProfileStore())

	for _, id := range []string{"choy", "stark", "rose"} {
		if !mgr.Exists(id) {
			t.Errorf("Exists(%q) = false, want true", id)
		}

		p := mgr.Get(id)
		if p.SystemPrompt == "" {
			t.Errorf("persona %q has empty system prompt", id)
		}

		if p.FailureMessage == "" {
			t.Errorf("persona %q has empty failure message", id)
		}
	}
}

func TestNewManager_UnknownDefault(t *testing.T) {
	logger := zerolog.Nop()

	_, err := NewManager("", "nonexistent", newFakeProfileStore(), &logger)
	if err == nil {
		t.Error("NewManager() expected error for unknown default persona")
	}
}

func TestManager_GetUnknownFallsBackToDefault(t *testing.T) {
	mgr := newTestManager(t, "", "", newFakeProfileStore())

	p := mgr.Get("no-such-persona")
	if p.ID != DefaultPersonaID {
		t.Errorf("Get(unknown).ID = %q, want %q", p.ID, DefaultPersonaID)
	}

	p = mgr.Get("")
	if p.ID != DefaultPersonaID {
		t.Errorf("Get(\"\").ID = %q, want %q", p.ID, DefaultPersonaID)
	}
}

func TestManager_ListSortedByID(t *testing.T) {
	mgr := newTestManager(t, "", "", newFakeProfileStore())

	list := mgr.List()
	if len(list) < 3 {
		t.Fatalf("List() returned %d personas, want at least 3", len(list))
	}

	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("List() not sorted: %q before %q", list[i-1].ID, list[i].ID)
		}
	}
}

func TestManager_SwitchPersists(t *testing.T) {
	profiles := newFakeProfileStore()
	mgr := newTestManager(t, "", "", profiles)

	p, err := mgr.Switch(context.Background(), 42, "stark")
	if err != nil {
		t.Fatalf("Switch() error = %v", err)
	}

	if p.ID != "stark" {
		t.Errorf("Switch().ID = %q, want stark", p.ID)
	}

	if profiles.saved[42] != "stark" {
		t.Errorf("preference = %q, want stark", profiles.saved[42])
	}
}

func TestManager_SwitchUnknownPersona(t *testing.T) {
	profiles := newFakeProfileStore()
	mgr := newTestManager(t, "", "", profiles)

	if _, err := mgr.Switch(context.Background(), 42, "gandalf"); err == nil {
		t.Error("Switch() expected error for unknown persona")
	}

	if len(profiles.saved) != 0 {
		t.Error("Switch() persisted a preference for an unknown persona")
	}
}

func TestManager_SwitchStoreError(t *testing.T) {
	profiles := newFakeProfileStore()
	profiles.err = errProfileStore

	mgr := newTestManager(t, "", "", profiles)

	_, err := mgr.Switch(context.Background(), 42, "rose")
	if !errors.Is(err, errProfileStore) {
		t.Errorf("Switch() error = %v, want %v", err, errProfileStore)
	}
}

func TestNewManager_DirOverrides(t *testing.T) {
	dir := t.TempDir()

	override := `id: choy
name: Choy Override
description: test override
system_prompt: overridden prompt
failure_message: overridden failure
`

	custom := `id: pixel
name: Pixel
description: a custom persona
system_prompt: you are pixel
failure_message: pixel is offline
`

	if err := os.WriteFile(filepath.Join(dir, "choy.yaml"), []byte(override), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "pixel.yaml"), []byte(custom), 0o600); err != nil {
		t.Fatal(err)
	}

	mgr := newTestManager(t, dir, "", newFakeProfileStore())

	if got := mgr.Get("choy").SystemPrompt; got != "overridden prompt" {
		t.Errorf("override not applied, system prompt = %q", got)
	}

	if !mgr.Exists("pixel") {
		t.Error("custom persona from dir not loaded")
	}
}

func TestNewManager_MissingDirIsNotAnError(t *testing.T) {
	mgr := newTestManager(t, filepath.Join(t.TempDir(), "absent"), "", newFakeProfileStore())

	if !mgr.Exists(DefaultPersonaID) {
		t.Error("defaults missing after skipping absent override dir")
	}
}
