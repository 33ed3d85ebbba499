package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/refcollect/config.yml.
type GlobalConfig struct {
	// SynctexExe overrides the synctex binary name or path.
	SynctexExe string `yaml:"synctex_exe,omitempty"`
	// DefaultSort is the sort mode used when none is given on the command line.
	DefaultSort string `yaml:"default_sort,omitempty"`
	// SynctexRateLimit bounds synctex subprocess spawns per second.
	SynctexRateLimit float64 `yaml:"synctex_rate_limit,omitempty"`
	// Parallelism bounds concurrent coordinate lookups.
	Parallelism int `yaml:"parallelism,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "refcollect"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/refcollect/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.SynctexExe != "" {
		cfg.SynctexExe = ExpandTilde(cfg.SynctexExe)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// SaveGlobalConfig writes the global configuration file, creating the
// config directory if needed.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	path := GlobalConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine global config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding global config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing global config: %w", err)
	}
	globalConfigCache = nil
	return nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetSynctexExe returns the configured synctex binary, or "".
func GetSynctexExe() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.SynctexExe
}

// GetDefaultSort returns the configured default sort mode, or "".
func GetDefaultSort() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.DefaultSort
}

// GetSynctexRateLimit returns the configured subprocess rate limit, or 0.
func GetSynctexRateLimit() float64 {
	cfg, _ := LoadGlobalConfig()
	return cfg.SynctexRateLimit
}

// GetParallelism returns the configured lookup parallelism, or 0.
func GetParallelism() int {
	cfg, _ := LoadGlobalConfig()
	return cfg.Parallelism
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
