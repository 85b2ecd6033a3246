package schema

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ServiceConfig defines defaults and limits for the notebook service.
type ServiceConfig struct {
	StateDir string
	// PollInterval is the fixed period between job status requests.
	PollInterval time.Duration
	// MaxPollFailures stops polling a job after this many consecutive
	// failures. Zero keeps retrying until the service closes.
	MaxPollFailures int
	PrewarmEnabled  bool
	PrewarmDelay    time.Duration
	PrewarmMinChars int
	DefaultMode     SimulationMode
	DefaultShots    int
	DefaultModel    ModelID
	BuiltinModels   []ModelInfo
	DefaultNotebook string
}

const (
	// DefaultPollInterval is the job status polling period.
	DefaultPollInterval = 2500 * time.Millisecond
	// DefaultPrewarmDelay is the quiet period before an environment prepare.
	DefaultPrewarmDelay = 3000 * time.Millisecond
	// DefaultPrewarmMinChars is the shortest content worth preparing.
	DefaultPrewarmMinChars = 10
	// DefaultShots is the simulation shot count.
	DefaultShots = 1024
)

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.StateDir = filepath.Join(home, ".uqlabs", "state")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPollFailures < 0 {
		return ServiceConfig{}, errors.New("max poll failures must not be negative")
	}
	if cfg.PrewarmDelay <= 0 {
		cfg.PrewarmDelay = DefaultPrewarmDelay
	}
	if cfg.PrewarmMinChars <= 0 {
		cfg.PrewarmMinChars = DefaultPrewarmMinChars
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = SimulationModeStatic
	}
	if _, err := ParseSimulationMode(string(cfg.DefaultMode)); err != nil {
		return ServiceConfig{}, err
	}
	if cfg.DefaultShots <= 0 {
		cfg.DefaultShots = DefaultShots
	}
	if len(cfg.BuiltinModels) == 0 {
		cfg.BuiltinModels = []ModelInfo{
			{ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: "openai"},
			{ID: "claude-3-5-sonnet", Name: "Claude 3.5 Sonnet", Provider: "anthropic"},
			{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: "google"},
		}
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = cfg.BuiltinModels[0].ID
	}
	if cfg.DefaultNotebook == "" {
		cfg.DefaultNotebook = "Untitled notebook"
	}
	return cfg, nil
}
