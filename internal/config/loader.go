package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// AppName names the per-user configuration directory.
const AppName = "floormark"

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Set at compile time if needed
	// EnvFiles are loaded into the environment before overrides are applied.
	// Variables that are already set win.
	EnvFiles []string
	Getenv   func(string) string
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
		EnvFiles:     []string{".env"},
		Getenv:       os.Getenv,
	}
}

// Load reads the config file, applies FLOORMARK_* environment overrides and
// validates the result.
func (l *Loader) Load() (*Config, error) {
	l.loadEnvFiles()

	cfg := New()
	if path := l.GetConfigPath(); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg, err = Parse(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadEnvFiles() {
	var present []string
	for _, p := range l.EnvFiles {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		}
	}
	if len(present) > 0 {
		_ = godotenv.Load(present...)
	}
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	if l.Version == "dev" {
		wd, _ := os.Getwd()
		localPath := filepath.Join(wd, "."+AppName+"rc")
		if _, err := os.Stat(localPath); err == nil {
			return localPath
		}
	}

	xdgPath := DefaultPath()
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}

// DefaultPath is where a new configuration file is saved.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", AppName, "config.rc")
}

// Save writes cfg to path in RC format, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(cfg.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
