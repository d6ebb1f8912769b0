// Package personas defines the assistant's selectable identities and loads
// them from YAML.
package personas

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

var errPersonaNoID = errors.New("persona has no id")

// Persona describes one assistant identity.
type Persona struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	SystemPrompt   string `yaml:"system_prompt"`
	Style          string `yaml:"style"`
	VoiceTone      string `yaml:"voice_tone"`
	EmojiUsage     string `yaml:"emoji_usage"`
	FailureMessage string `yaml:"failure_message"`
}

// loadDefaults parses the embedded persona files.
func loadDefaults() (map[string]Persona, error) {
	personas := make(map[string]Persona)

	err := fs.WalkDir(defaultsFS, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		data, err := defaultsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded persona %s: %w", path, err)
		}

		p, err := parsePersona(data)
		if err != nil {
			return fmt.Errorf("parse embedded persona %s: %w", path, err)
		}

		personas[p.ID] = p

		return nil
	})
	if err != nil {
		return nil, err
	}

	return personas, nil
}

// loadDir parses persona files from a directory, overriding or extending
// the defaults. Missing directory is not an error.
func loadDir(dir string, into map[string]Persona) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("read persona dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read persona file %s: %w", entry.Name(), err)
		}

		p, err := parsePersona(data)
		if err != nil {
			return fmt.Errorf("parse persona file %s: %w", entry.Name(), err)
		}

		into[p.ID] = p
	}

	return nil
}

func parsePersona(data []byte) (Persona, error) {
	var p Persona

	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persona{}, err
	}

	if p.ID == "" {
		return Persona{}, errPersonaNoID
	}

	return p, nil
}

func isYAMLFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
