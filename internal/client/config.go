package client

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the client's persisted settings: where the server lives and the
// bearer token from the last login.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token,omitempty"`
}

// DefaultConfigPath returns the per-user config location,
// e.g. ~/.config/marklet/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "marklet", "config.yaml"), nil
}

// LoadConfig reads and parses the config file. A missing file is an error:
// the caller decides whether to fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint set in %s", path)
	}
	return &cfg, nil
}

// SaveConfig writes the config file with owner-only permissions (it holds
// the session token).
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
