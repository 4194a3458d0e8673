// Package config holds the server's environment-driven configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration, populated from environment
// variables with sensible local-development defaults.
type Config struct {
	Addr string `env:"BOMBHUNT_ADDR" envDefault:":8080"`

	// History backend: memory, sqlite or postgres.
	HistoryMode   string `env:"BOMBHUNT_HISTORY_MODE" envDefault:"memory"`
	HistoryDSN    string `env:"BOMBHUNT_HISTORY_DSN"`
	HistoryDBPath string `env:"BOMBHUNT_HISTORY_DB_PATH"`

	// Narrative collaborator. An empty API key selects the local generator.
	NarrativeAPIKey  string        `env:"BOMBHUNT_NARRATIVE_API_KEY"`
	NarrativeBaseURL string        `env:"BOMBHUNT_NARRATIVE_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai"`
	NarrativeModel   string        `env:"BOMBHUNT_NARRATIVE_MODEL" envDefault:"gemini-2.5-flash"`
	NarrativeTimeout time.Duration `env:"BOMBHUNT_NARRATIVE_TIMEOUT" envDefault:"20s"`

	OpponentThinkDelay time.Duration `env:"BOMBHUNT_OPPONENT_THINK_DELAY" envDefault:"600ms"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	mode := strings.ToLower(strings.TrimSpace(c.HistoryMode))
	switch mode {
	case "memory", "sqlite", "local", "postgres":
		c.HistoryMode = mode
	default:
		return fmt.Errorf("invalid history mode: %q", c.HistoryMode)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("empty listen address")
	}
	if c.NarrativeTimeout <= 0 {
		c.NarrativeTimeout = 20 * time.Second
	}
	if c.OpponentThinkDelay < 0 {
		c.OpponentThinkDelay = 0
	}
	return nil
}
