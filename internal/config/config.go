// Package config handles project and global configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents project configuration stored in .refcollect/config.json.
type Config struct {
	TexRoot string `json:"tex_root,omitempty"` // Main .tex file, relative to the project root
	BibPath string `json:"bib_path,omitempty"` // Bibliography file, relative to the project root
	OutPath string `json:"out_path,omitempty"` // Default HTML output path
	Sort    string `json:"sort,omitempty"`     // Default sort mode: occurrence, year, bib
}

const (
	RefcollectDir = ".refcollect"
	ConfigFile    = "config.json"
	CacheDir      = "cache"
	DBFile        = "report.db"
)

// RefcollectPath returns the path to the .refcollect directory from a root path.
func RefcollectPath(root string) string {
	return filepath.Join(root, RefcollectDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, RefcollectDir, ConfigFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, RefcollectDir, CacheDir)
}

// DBPath returns the path to report.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, RefcollectDir, CacheDir, DBFile)
}

// IsProject checks if the given path contains a refcollect project directory.
func IsProject(root string) bool {
	info, err := os.Stat(RefcollectPath(root))
	return err == nil && info.IsDir()
}

// FindProject walks up from the given path to find a refcollect project.
// Returns the project root path or an error if not found.
func FindProject(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsProject(abs) {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a refcollect project (no .refcollect directory found)")
		}
		abs = parent
	}
}

// EnsureProject creates the .refcollect directory tree under root.
func EnsureProject(root string) error {
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return fmt.Errorf("creating project directories: %w", err)
	}
	return nil
}

// Load reads configuration from the project at the given root.
// A missing config file yields an empty config, not an error.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes configuration to the project at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
