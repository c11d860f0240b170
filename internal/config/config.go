// Package config loads the clipkeep configuration file.
//
// The file is YAML, by default at ~/.config/clipkeep/config.yaml:
//
//	db_path: /home/user/.local/share/clipkeep/clipkeep.db
//	key_file: /home/user/.config/clipkeep/key
//
// CLIPKEEP_DB overrides db_path for scripting and tests.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all user-facing settings.
type Config struct {
	// DBPath is the SQLite database location.
	DBPath string `yaml:"db_path"`

	// KeyFile names the file whose bytes seed the content-protection key.
	// Empty disables sensitive-content support.
	KeyFile string `yaml:"key_file,omitempty"`
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "clipkeep", "config.yaml"), nil
}

// Default returns the configuration used when no file exists.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home dir: %w", err)
	}
	return Config{
		DBPath: filepath.Join(home, ".local", "share", "clipkeep", "clipkeep.db"),
	}, nil
}

// Load reads the config at path, falling back to defaults if the file does
// not exist. The CLIPKEEP_DB environment variable wins over both.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply.
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if env := os.Getenv("CLIPKEEP_DB"); env != "" {
		cfg.DBPath = env
	}
	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("config %s: db_path must not be empty", path)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
