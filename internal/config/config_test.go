package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Path != "./data/assistant.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
	if cfg.Language != "en" {
		t.Errorf("language = %q, want en", cfg.Language)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `server:
  port: 9090
  origin: https://lab.example
language: fr
provider:
  kind: openrouter
  model: llama-3.1
  directclient: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Origin != "https://lab.example" {
		t.Errorf("origin = %q", cfg.Server.Origin)
	}
	if cfg.Language != "fr" {
		t.Errorf("language = %q, want fr", cfg.Language)
	}
	if cfg.Provider.Kind != "openrouter" || !cfg.Provider.DirectClient {
		t.Errorf("provider = %+v", cfg.Provider)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("language: fr\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MICROBEMAP_LANGUAGE", "en")
	t.Setenv("MICROBEMAP_SERVER_PORT", "7000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Language != "en" {
		t.Errorf("language = %q, env should win", cfg.Language)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want 7000", cfg.Server.Port)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, missing file should be ignored", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want defaults", cfg.Server.Port)
	}
}
