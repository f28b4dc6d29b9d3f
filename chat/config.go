package chat

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ollamate/core/backend"
	"github.com/ollamate/core/history"
	"github.com/ollamate/core/store"
)

// Config holds initialization parameters for all coordinator subsystems.
// Each subsystem section delegates to that subsystem's config-driven
// constructor.
type Config struct {
	Store   store.Config   `json:"store"`
	Backend backend.Config `json:"backend"`
	History history.Config `json:"history"`
	// SystemPrompt, when set, is sent as a system turn ahead of the first
	// real turn of every session.
	SystemPrompt string `json:"system_prompt,omitempty"`
	// DefaultModel seeds new sessions when nothing is selected.
	DefaultModel string `json:"default_model,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Store:   store.DefaultConfig(),
		Backend: backend.DefaultConfig(),
		History: history.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Store.Merge(&source.Store)
	c.Backend.Merge(&source.Backend)
	c.History.Merge(&source.History)

	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
	if source.DefaultModel != "" {
		c.DefaultModel = source.DefaultModel
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and
// returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
