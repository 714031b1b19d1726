package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, configDirName)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig(context.Background())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Delimiter != `\r\n` {
		t.Errorf("Delimiter = %q, want escaped CRLF", cfg.Delimiter)
	}
	if cfg.Format != "auto" {
		t.Errorf("Format = %q, want auto", cfg.Format)
	}
	if cfg.Profiles == nil {
		t.Error("Profiles map should not be nil")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	writeConfig(t, `
delimiter: "|"
profiles:
  events:
    url: https://example.com/events
    sse: true
    type: application/json
    description: live event feed
`)

	cfg, err := LoadConfig(context.Background())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Delimiter != "|" {
		t.Errorf("Delimiter = %q, want |", cfg.Delimiter)
	}
	if cfg.Format != "auto" {
		t.Errorf("Format = %q, defaults should still apply", cfg.Format)
	}

	p, ok := cfg.Profiles["events"]
	if !ok {
		t.Fatalf("profile missing, got %v", cfg.Profiles)
	}
	if p.URL != "https://example.com/events" || !p.SSE || p.Type != "application/json" {
		t.Errorf("profile = %+v", p)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	writeConfig(t, "delimiter: [unterminated")

	if _, err := LoadConfig(context.Background()); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
