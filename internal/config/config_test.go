package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9090
storage:
  dir: /var/lib/cyberstrike
  workers: 4
providers:
  gemini:
    type: gemini
    api_key: from-file
analysis:
  provider: gemini
  model: gemini-2.0-pro
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
	if cfg.Storage.Dir != "/var/lib/cyberstrike" {
		t.Errorf("storage dir: got %q", cfg.Storage.Dir)
	}
	if cfg.Storage.Workers != 4 {
		t.Errorf("workers: got %d", cfg.Storage.Workers)
	}
	// Defaults survive partial files.
	if cfg.Storage.MaxUploadMB != 50 {
		t.Errorf("max upload: got %d", cfg.Storage.MaxUploadMB)
	}
	if cfg.Storage.ReconcileSpec != "@every 5m" {
		t.Errorf("reconcile spec: got %q", cfg.Storage.ReconcileSpec)
	}
	if cfg.Analysis.Model != "gemini-2.0-pro" {
		t.Errorf("model: got %q", cfg.Analysis.Model)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("DATABASE_URL", "postgres://localhost/cyberstrike")
	t.Setenv("JWT_SECRET", "sekrit")

	cfg := defaults()
	cfg.applyEnv()

	if cfg.Providers["gemini"].APIKey != "from-env" {
		t.Errorf("gemini key: got %q", cfg.Providers["gemini"].APIKey)
	}
	if cfg.Providers["gemini"].Type != "gemini" {
		t.Errorf("gemini type: got %q", cfg.Providers["gemini"].Type)
	}
	if cfg.Database.URL != "postgres://localhost/cyberstrike" {
		t.Errorf("database url: got %q", cfg.Database.URL)
	}
	if cfg.Auth.JWTSecret != "sekrit" {
		t.Errorf("jwt secret: got %q", cfg.Auth.JWTSecret)
	}
}
