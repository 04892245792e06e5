package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Generation.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.Generation.Provider)
	}
	if cfg.Generation.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("expected model 'gpt-4o-mini', got %q", cfg.Generation.OpenAIModel)
	}
	if cfg.Research.ItemsPerSource != 10 {
		t.Errorf("expected 10 items per source, got %d", cfg.Research.ItemsPerSource)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("expected file backend, got %q", cfg.Storage.Backend)
	}
	if !cfg.Sources.Forum.Enabled {
		t.Error("expected forum source enabled by default")
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
generation:
  provider: ollama
  model: llama3.1:8b
storage:
  backend: sqlite
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Generation.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", cfg.Generation.Provider)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %q", cfg.Storage.Backend)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Generation.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Generation.OllamaURL)
	}
	if cfg.Scheduler.Cron != "0 8 * * *" {
		t.Errorf("expected default cron, got %q", cfg.Scheduler.Cron)
	}
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	if _, err := parse([]byte("storage:\n  backend: redis\n")); err == nil {
		t.Error("expected error for unknown storage backend")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Generation.MaxRetries != 2 {
		t.Errorf("expected 2 retries from file, got %d", cfg.Generation.MaxRetries)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Storage.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing explicit config path")
	}
}
