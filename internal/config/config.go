// Package config loads the YAML application configuration with environment
// overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the top-level application configuration.
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Storage   StorageConfig             `yaml:"storage"`
	Database  DatabaseConfig            `yaml:"database"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Analysis  AnalysisConfig            `yaml:"analysis"`
	Auth      AuthConfig                `yaml:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds document store settings.
type StorageConfig struct {
	Dir           string `yaml:"dir"`            // base directory for blobs and sidecars
	MaxUploadMB   int    `yaml:"max_upload_mb"`  // multipart upload cap
	Workers       int    `yaml:"workers"`        // extraction worker count
	ReconcileSpec string `yaml:"reconcile_spec"` // cron spec for the pending-document sweep
}

// DatabaseConfig holds PostgreSQL connection settings. Empty URL disables
// transcript persistence.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// ProviderConfig holds AI provider settings.
type ProviderConfig struct {
	Type   string `yaml:"type"`    // e.g. "gemini", "openai"
	URL    string `yaml:"url"`     // base URL for OpenAI-compatible endpoints
	APIKey string `yaml:"api_key"` // API key
}

// AnalysisConfig selects the provider and model the analysis layer uses.
type AnalysisConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// AuthConfig holds optional API authentication settings. An empty secret
// leaves the API open (matching the original deployment posture).
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Dir:           "data",
			MaxUploadMB:   50,
			Workers:       2,
			ReconcileSpec: "@every 5m",
		},
		Providers: map[string]ProviderConfig{},
		Analysis: AnalysisConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
		},
	}
}

// Load reads a YAML configuration file at path and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadDefault tries to load "config.yaml" from the current directory.
// If the file does not exist, it returns defaults (plus env overrides).
// Any other error (e.g. permission denied, malformed YAML) is returned.
func LoadDefault() (*Config, error) {
	cfg, err := Load("config.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = defaults()
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets secrets come from the environment instead of the YAML file.
func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		p := c.Providers["gemini"]
		p.Type = "gemini"
		p.APIKey = key
		c.Providers["gemini"] = p
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		p := c.Providers["openai"]
		if p.Type == "" {
			p.Type = "openai"
		}
		p.APIKey = key
		c.Providers["openai"] = p
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
}
