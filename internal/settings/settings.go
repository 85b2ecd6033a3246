// Package settings stores the user's assistant API keys and custom model list.
// Both are loaded explicitly and replaced wholesale on save.
package settings

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"pkt.systems/uqlabs/schema"
)

// File names inside the state directory.
const (
	APIKeysFile      = "api_keys.enc"
	CustomModelsFile = "custom_models.json"
	KeyStoreFile     = "settings.keys"
)

// CustomModel is a user-added assistant model.
type CustomModel struct {
	ID       schema.ModelID `json:"id"`
	Name     string         `json:"name"`
	Provider string         `json:"provider"`
}

// Settings is the complete user settings bundle.
type Settings struct {
	APIKeys      map[string]string
	CustomModels []CustomModel
}

// Service loads and saves settings.
type Service interface {
	Load() (Settings, error)
	Save(Settings) error
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := Settings{APIKeys: make(map[string]string, len(s.APIKeys))}
	for k, v := range s.APIKeys {
		out.APIKeys[k] = v
	}
	out.CustomModels = append([]CustomModel(nil), s.CustomModels...)
	return out
}

// Normalize validates model ids, drops empty keys and fills missing names.
// Provider names are lower-cased.
func (s Settings) Normalize() (Settings, error) {
	out := Settings{APIKeys: map[string]string{}}
	for provider, key := range s.APIKeys {
		provider = strings.ToLower(strings.TrimSpace(provider))
		key = strings.TrimSpace(key)
		if provider == "" || key == "" {
			continue
		}
		out.APIKeys[provider] = key
	}
	seen := map[schema.ModelID]bool{}
	for _, model := range s.CustomModels {
		id, err := schema.NormalizeModelID(string(model.ID))
		if err != nil {
			return Settings{}, fmt.Errorf("custom model %q: %w", model.ID, err)
		}
		if seen[id] {
			return Settings{}, fmt.Errorf("custom model %q: %w: duplicate id", id, schema.ErrInvalidModel)
		}
		seen[id] = true
		name := strings.TrimSpace(model.Name)
		if name == "" {
			name = string(id)
		}
		out.CustomModels = append(out.CustomModels, CustomModel{
			ID:       id,
			Name:     name,
			Provider: strings.ToLower(strings.TrimSpace(model.Provider)),
		})
	}
	return out, nil
}

// Providers returns the providers with a configured key, sorted.
func (s Settings) Providers() []string {
	out := make([]string, 0, len(s.APIKeys))
	for provider := range s.APIKeys {
		out = append(out, provider)
	}
	sort.Strings(out)
	return out
}

// WithAPIKey returns a copy with the provider key set. An empty key removes it.
func (s Settings) WithAPIKey(provider, key string) Settings {
	out := s.Clone()
	provider = strings.ToLower(strings.TrimSpace(provider))
	if strings.TrimSpace(key) == "" {
		delete(out.APIKeys, provider)
		return out
	}
	out.APIKeys[provider] = strings.TrimSpace(key)
	return out
}

// WithModel returns a copy with model added, replacing any entry with the same id.
func (s Settings) WithModel(model CustomModel) Settings {
	out := s.WithoutModel(model.ID)
	out.CustomModels = append(out.CustomModels, model)
	return out
}

// WithoutModel returns a copy without the model id.
func (s Settings) WithoutModel(id schema.ModelID) Settings {
	out := s.Clone()
	kept := out.CustomModels[:0]
	for _, model := range out.CustomModels {
		if model.ID != id {
			kept = append(kept, model)
		}
	}
	out.CustomModels = kept
	return out
}

// Memory is an in-process Service.
type Memory struct {
	mu       sync.Mutex
	settings Settings
}

// NewMemory returns a Memory seeded with initial.
func NewMemory(initial Settings) *Memory {
	return &Memory{settings: initial.Clone()}
}

// Load returns a copy of the stored settings.
func (m *Memory) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.Clone(), nil
}

// Save replaces the stored settings.
func (m *Memory) Save(s Settings) error {
	normalized, err := s.Normalize()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.settings = normalized
	m.mu.Unlock()
	return nil
}
