package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// ConfigDir is the default config directory name.
const ConfigDir = ".claude-bridge"

// ConfigFile is the default config file name.
const ConfigFile = "config.json"

// ConfigPath returns the path to the config file, honoring
// CLAUDE_BRIDGE_CONFIG as an override.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("CLAUDE_BRIDGE_CONFIG")); explicit != "" {
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults. A missing file falls back to
// defaults; Validate() is left to the caller so it can print a
// copy-the-example message when credentials are missing.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err == nil {
		data, readErr := os.ReadFile(path)
		if readErr == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(readErr) {
			return nil, fmt.Errorf("config: read %s: %w", path, readErr)
		}
	}

	if err := envconfig.Process("CLAUDE_BRIDGE_TELEGRAM", &cfg.Telegram); err != nil {
		return nil, fmt.Errorf("config: env telegram: %w", err)
	}
	if err := envconfig.Process("CLAUDE_BRIDGE", &cfg.Bridge); err != nil {
		return nil, fmt.Errorf("config: env bridge: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ExampleConfig is printed in the fatal-startup-error message, so a new
// operator can copy it into place.
const ExampleConfig = `{
  "telegram_bot_token": "123456:ABC-DEF...",
  "telegram_chat_id": 123456789,
  "bridge_host": "127.0.0.1",
  "bridge_port": 7888,
  "approval_timeout_seconds": 300
}`
