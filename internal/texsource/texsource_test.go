package texsource

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFiles creates the given files under dir and returns dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func fileNames(res *Result) []string {
	names := make([]string, len(res.Files))
	for i, f := range res.Files {
		names[i] = filepath.Base(f.Path)
	}
	return names
}

func TestWalk_SingleFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.tex": "\\documentclass{article}\n\\begin{document}\nhello\n\\end{document}\n",
	})

	res, err := NewWalker().Walk(filepath.Join(dir, "main.tex"))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(res.Files))
	}
	if got := res.Files[0].Lines[2].Text; got != "hello" {
		t.Errorf("line 3 = %q, want %q", got, "hello")
	}
	if res.Files[0].Lines[2].Number != 3 {
		t.Errorf("line number = %d, want 3", res.Files[0].Lines[2].Number)
	}
}

func TestWalk_TraversalOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.tex":  "\\input{intro}\n\\include{methods}\ntrailing text\n",
		"intro.tex": "intro body\n",
		// methods pulls in a nested subfile before its own text
		"methods.tex": "\\subfile{sub/detail}\nmethods body\n",
		"sub/detail.tex": "detail body\n",
	})

	res, err := NewWalker().Walk(filepath.Join(dir, "main.tex"))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{"intro.tex", "detail.tex", "methods.tex", "main.tex"}
	got := fileNames(res)
	if len(got) != len(want) {
		t.Fatalf("got files %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestWalk_CycleSafety(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.tex": "\\input{b}\nA text\n",
		"b.tex": "\\input{a}\nB text\n",
	})

	res, err := NewWalker().Walk(filepath.Join(dir, "a.tex"))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("got %d files, want 2 (each file exactly once)", len(res.Files))
	}
}

func TestWalk_DiamondInclusion(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.tex":   "\\input{left}\n\\input{right}\n",
		"left.tex":   "\\input{shared}\n",
		"right.tex":  "\\input{shared}\n",
		"shared.tex": "shared body\n",
	})

	res, err := NewWalker().Walk(filepath.Join(dir, "main.tex"))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	count := 0
	for _, f := range res.Files {
		if filepath.Base(f.Path) == "shared.tex" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared.tex appears %d times, want 1", count)
	}
}

func TestWalk_MissingIncludeRecorded(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.tex": "\\input{ghost}\n\\input{real}\n",
		"real.tex": "real body\n",
	})

	res, err := NewWalker().Walk(filepath.Join(dir, "main.tex"))
	if err != nil {
		t.Fatalf("Walk() error = %v, want nil (missing include is not fatal)", err)
	}
	if len(res.Missing) != 1 {
		t.Fatalf("got %d missing records, want 1", len(res.Missing))
	}
	m := res.Missing[0]
	if filepath.Base(m.Target) != "ghost.tex" {
		t.Errorf("missing target = %s, want ghost.tex", m.Target)
	}
	if m.Line != 1 {
		t.Errorf("missing line = %d, want 1", m.Line)
	}
	// Traversal continued with the sibling
	want := []string{"real.tex", "main.tex"}
	got := fileNames(res)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestWalk_MissingRootFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := NewWalker().Walk(filepath.Join(dir, "nope.tex"))
	if err == nil {
		t.Fatal("Walk() with missing root should fail")
	}
}

func TestWalk_Idempotent(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.tex": "\\input{a}\n\\input{b}\n",
		"a.tex":    "A\n",
		"b.tex":    "B\n",
	})
	root := filepath.Join(dir, "main.tex")

	first, err := NewWalker().Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewWalker().Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Files) != len(second.Files) {
		t.Fatalf("runs differ in length: %d vs %d", len(first.Files), len(second.Files))
	}
	for i := range first.Files {
		if first.Files[i].Path != second.Files[i].Path {
			t.Errorf("file[%d] differs across runs: %s vs %s", i, first.Files[i].Path, second.Files[i].Path)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		target string
		want   string
	}{
		{"adds default extension", "/doc/main.tex", "intro", "/doc/intro.tex"},
		{"keeps existing extension", "/doc/main.tex", "intro.tex", "/doc/intro.tex"},
		{"relative subdirectory", "/doc/main.tex", "sections/one", "/doc/sections/one.tex"},
		{"absolute path untouched", "/doc/main.tex", "/other/file.tex", "/other/file.tex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTarget(tt.parent, tt.target); got != tt.want {
				t.Errorf("ResolveTarget(%q, %q) = %q, want %q", tt.parent, tt.target, got, tt.want)
			}
		})
	}
}
