package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGlobalConfigPath(t *testing.T) {
	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)

	os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path := GlobalConfigPath()
	want := "/custom/config/refcollect/config.yml"
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}

	os.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	path = GlobalConfigPath()
	want = filepath.Join(home, ".config", "refcollect", "config.yml")
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)
	os.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.SynctexExe != "" || cfg.DefaultSort != "" {
		t.Errorf("LoadGlobalConfig() of missing file = %+v, want empty", cfg)
	}
}

func TestLoadGlobalConfig_RoundTrip(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)
	os.Setenv("XDG_CONFIG_HOME", t.TempDir())

	saved := &GlobalConfig{
		SynctexExe:       "/usr/local/bin/synctex",
		DefaultSort:      "bib",
		SynctexRateLimit: 16,
		Parallelism:      8,
	}
	if err := SaveGlobalConfig(saved); err != nil {
		t.Fatalf("SaveGlobalConfig() error = %v", err)
	}

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.SynctexExe != saved.SynctexExe {
		t.Errorf("SynctexExe = %q, want %q", cfg.SynctexExe, saved.SynctexExe)
	}
	if cfg.DefaultSort != "bib" {
		t.Errorf("DefaultSort = %q, want %q", cfg.DefaultSort, "bib")
	}
	if cfg.SynctexRateLimit != 16 {
		t.Errorf("SynctexRateLimit = %v, want 16", cfg.SynctexRateLimit)
	}
	if cfg.Parallelism != 8 {
		t.Errorf("Parallelism = %d, want 8", cfg.Parallelism)
	}
}

func TestLoadGlobalConfig_Cached(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)
	tmpDir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", tmpDir)

	if err := SaveGlobalConfig(&GlobalConfig{DefaultSort: "year"}); err != nil {
		t.Fatalf("SaveGlobalConfig() error = %v", err)
	}

	first, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	// Rewrite the file behind the cache; the cached value should win.
	path := filepath.Join(tmpDir, GlobalConfigDir, GlobalConfigFile)
	if err := os.WriteFile(path, []byte("default_sort: occurrence\n"), 0644); err != nil {
		t.Fatalf("Failed to rewrite config: %v", err)
	}

	second, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if second != first {
		t.Error("LoadGlobalConfig() did not return the cached config")
	}

	ResetGlobalConfigCache()
	third, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if third.DefaultSort != "occurrence" {
		t.Errorf("DefaultSort after reset = %q, want %q", third.DefaultSort, "occurrence")
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)
	tmpDir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte("{bad yaml: ["), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() expected error for invalid YAML")
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tilde slash", "~/docs/paper", filepath.Join(home, "docs", "paper")},
		{"bare tilde", "~", home},
		{"no tilde", "/usr/bin/synctex", "/usr/bin/synctex"},
		{"mid tilde", "/tmp/~weird", "/tmp/~weird"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandTilde(tt.in); got != tt.want {
				t.Errorf("ExpandTilde(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
