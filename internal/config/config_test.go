package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/project"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"RefcollectPath", RefcollectPath, "/test/project/.refcollect"},
		{"ConfigPath", ConfigPath, "/test/project/.refcollect/config.json"},
		{"CachePath", CachePath, "/test/project/.refcollect/cache"},
		{"DBPath", DBPath, "/test/project/.refcollect/cache/report.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestIsProject(t *testing.T) {
	tmpDir := t.TempDir()

	if IsProject(tmpDir) {
		t.Error("IsProject() = true for plain directory")
	}

	if err := os.Mkdir(filepath.Join(tmpDir, RefcollectDir), 0755); err != nil {
		t.Fatalf("Failed to create .refcollect: %v", err)
	}

	if !IsProject(tmpDir) {
		t.Error("IsProject() = false after creating .refcollect")
	}
}

func TestIsProject_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	// .refcollect as a file should not count as a project
	if err := os.WriteFile(filepath.Join(tmpDir, RefcollectDir), []byte("not a dir"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	if IsProject(tmpDir) {
		t.Error("IsProject() = true for .refcollect file")
	}
}

func TestFindProject(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureProject(tmpDir); err != nil {
		t.Fatalf("EnsureProject() error = %v", err)
	}

	nested := filepath.Join(tmpDir, "chapters", "appendix")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}

	root, err := FindProject(nested)
	if err != nil {
		t.Fatalf("FindProject() error = %v", err)
	}
	wantResolved, _ := filepath.EvalSymlinks(tmpDir)
	gotResolved, _ := filepath.EvalSymlinks(root)
	if gotResolved != wantResolved {
		t.Errorf("FindProject() = %q, want %q", root, tmpDir)
	}
}

func TestFindProject_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := FindProject(tmpDir); err == nil {
		t.Error("FindProject() expected error outside a project")
	}
}

func TestEnsureProject(t *testing.T) {
	tmpDir := t.TempDir()

	if err := EnsureProject(tmpDir); err != nil {
		t.Fatalf("EnsureProject() error = %v", err)
	}

	info, err := os.Stat(CachePath(tmpDir))
	if err != nil {
		t.Fatalf("cache dir missing: %v", err)
	}
	if !info.IsDir() {
		t.Error("cache path is not a directory")
	}

	// Idempotent
	if err := EnsureProject(tmpDir); err != nil {
		t.Errorf("EnsureProject() second call error = %v", err)
	}
}

func TestLoadSave(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureProject(tmpDir); err != nil {
		t.Fatalf("EnsureProject() error = %v", err)
	}

	// Missing config file yields empty config
	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TexRoot != "" || cfg.Sort != "" {
		t.Errorf("Load() of missing file = %+v, want empty", cfg)
	}

	cfg.TexRoot = "main.tex"
	cfg.BibPath = "refs.bib"
	cfg.Sort = "year"
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() after Save error = %v", err)
	}
	if loaded.TexRoot != "main.tex" || loaded.BibPath != "refs.bib" || loaded.Sort != "year" {
		t.Errorf("Load() = %+v, want saved values", loaded)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureProject(tmpDir); err != nil {
		t.Fatalf("EnsureProject() error = %v", err)
	}
	if err := os.WriteFile(ConfigPath(tmpDir), []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load() expected error for invalid JSON")
	}
}
