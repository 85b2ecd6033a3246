package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/uqlabs/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int              `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string           `mapstructure:"state_dir" yaml:"state_dir"`
	Backend       BackendConfig    `mapstructure:"backend" yaml:"backend"`
	Service       ServiceConfig    `mapstructure:"service" yaml:"service"`
	Simulation    SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Models        ModelsConfig     `mapstructure:"models" yaml:"models"`
	HTTP          HTTPConfig       `mapstructure:"http" yaml:"http"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// BackendConfig points at the execution service.
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout.
func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ServiceConfig controls core service behavior.
type ServiceConfig struct {
	PollIntervalMS  int  `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	MaxPollFailures int  `mapstructure:"max_poll_failures" yaml:"max_poll_failures"`
	PrewarmEnabled  bool `mapstructure:"prewarm_enabled" yaml:"prewarm_enabled"`
	PrewarmDelayMS  int  `mapstructure:"prewarm_delay_ms" yaml:"prewarm_delay_ms"`
	PrewarmMinChars int  `mapstructure:"prewarm_min_chars" yaml:"prewarm_min_chars"`
}

// SimulationConfig holds defaults for simulation runs.
type SimulationConfig struct {
	Mode  string `mapstructure:"mode" yaml:"mode"`
	Shots int    `mapstructure:"shots" yaml:"shots"`
}

// ModelsConfig controls built-in and default assistant models.
type ModelsConfig struct {
	Default string        `mapstructure:"default" yaml:"default"`
	Builtin []ModelConfig `mapstructure:"builtin" yaml:"builtin"`
}

// ModelConfig declares one built-in model.
type ModelConfig struct {
	ID       string `mapstructure:"id" yaml:"id"`
	Name     string `mapstructure:"name" yaml:"name"`
	Provider string `mapstructure:"provider" yaml:"provider"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`
	BasePath   string `mapstructure:"base_path" yaml:"base_path"`
	HubHistory int    `mapstructure:"hub_history" yaml:"hub_history"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".uqlabs", "state"),
		Backend: BackendConfig{
			BaseURL:        "http://127.0.0.1:8000",
			TimeoutSeconds: 120,
		},
		Service: ServiceConfig{
			PollIntervalMS:  int(schema.DefaultPollInterval / time.Millisecond),
			MaxPollFailures: 0,
			PrewarmEnabled:  true,
			PrewarmDelayMS:  int(schema.DefaultPrewarmDelay / time.Millisecond),
			PrewarmMinChars: schema.DefaultPrewarmMinChars,
		},
		Simulation: SimulationConfig{
			Mode:  string(schema.SimulationModeStatic),
			Shots: schema.DefaultShots,
		},
		Models: ModelsConfig{
			Default: "gpt-4o-mini",
			Builtin: []ModelConfig{
				{ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: "openai"},
				{ID: "claude-3-5-sonnet", Name: "Claude 3.5 Sonnet", Provider: "anthropic"},
				{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: "google"},
			},
		},
		HTTP: HTTPConfig{
			Addr:       "127.0.0.1:27490",
			BasePath:   "",
			HubHistory: 256,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".uqlabs", "config.yaml"), nil
}

// ToServiceConfig maps the file config onto the core service config.
func (c Config) ToServiceConfig() (schema.ServiceConfig, error) {
	mode, err := schema.ParseSimulationMode(c.Simulation.Mode)
	if err != nil {
		return schema.ServiceConfig{}, err
	}
	models := make([]schema.ModelInfo, 0, len(c.Models.Builtin))
	for _, m := range c.Models.Builtin {
		id, err := schema.NormalizeModelID(m.ID)
		if err != nil {
			return schema.ServiceConfig{}, err
		}
		name := m.Name
		if name == "" {
			name = string(id)
		}
		models = append(models, schema.ModelInfo{ID: id, Name: name, Provider: m.Provider})
	}
	var defaultModel schema.ModelID
	if c.Models.Default != "" {
		defaultModel, err = schema.NormalizeModelID(c.Models.Default)
		if err != nil {
			return schema.ServiceConfig{}, err
		}
	}
	return schema.NormalizeServiceConfig(schema.ServiceConfig{
		StateDir:        c.StateDir,
		PollInterval:    time.Duration(c.Service.PollIntervalMS) * time.Millisecond,
		MaxPollFailures: c.Service.MaxPollFailures,
		PrewarmEnabled:  c.Service.PrewarmEnabled,
		PrewarmDelay:    time.Duration(c.Service.PrewarmDelayMS) * time.Millisecond,
		PrewarmMinChars: c.Service.PrewarmMinChars,
		DefaultMode:     mode,
		DefaultShots:    c.Simulation.Shots,
		DefaultModel:    defaultModel,
		BuiltinModels:   models,
	})
}
