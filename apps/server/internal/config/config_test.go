package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("default addr = %q, want :8080", cfg.Addr)
	}
	if cfg.HistoryMode != "memory" {
		t.Errorf("default history mode = %q, want memory", cfg.HistoryMode)
	}
	if cfg.NarrativeTimeout != 20*time.Second {
		t.Errorf("default narrative timeout = %v", cfg.NarrativeTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOMBHUNT_ADDR", ":9090")
	t.Setenv("BOMBHUNT_HISTORY_MODE", "SQLITE")
	t.Setenv("BOMBHUNT_NARRATIVE_MODEL", "gemini-1.5-flash")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.HistoryMode != "sqlite" {
		t.Errorf("history mode = %q, want sqlite (normalized)", cfg.HistoryMode)
	}
	if cfg.NarrativeModel != "gemini-1.5-flash" {
		t.Errorf("narrative model = %q", cfg.NarrativeModel)
	}
}

func TestLoadRejectsUnknownHistoryMode(t *testing.T) {
	t.Setenv("BOMBHUNT_HISTORY_MODE", "cassandra")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown history mode")
	}
}
