// Package texsource walks a LaTeX source tree via inclusion directives.
package texsource

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DirectiveKind identifies which inclusion command pulled a file in.
type DirectiveKind string

const (
	DirectiveInput   DirectiveKind = "input"
	DirectiveInclude DirectiveKind = "include"
	DirectiveSubfile DirectiveKind = "subfile"
)

// DefaultExtension is appended to directive targets that carry no extension.
// All three directive kinds share one resolution routine; the kinds differ
// only in how TeX treats them at typeset time, which is irrelevant here.
const DefaultExtension = ".tex"

// Line is one physical source line with its 1-based number.
type Line struct {
	Number int
	Text   string
}

// SourceFile is a loaded source file. Immutable once built; downstream
// stages hold pointers to the walker's single instance per path.
type SourceFile struct {
	// Path is the absolute, cleaned path used as the file's identity.
	Path string
	// Text is the raw file contents.
	Text string
	// Lines is Text split into numbered physical lines.
	Lines []Line
}

// InclusionEdge records one directive linking a parent file to a child.
// Edges exist only to drive traversal order and reporting; they are not
// retained past the walk.
type InclusionEdge struct {
	Parent string
	Child  string
	Kind   DirectiveKind
	Line   int
}

// MissingInclude records a directive whose target could not be read.
type MissingInclude struct {
	Parent string `json:"parent"` // file containing the directive
	Target string `json:"target"` // resolved path that was tried
	Line   int    `json:"line"`   // source line of the directive
}

// Result is the outcome of a walk: files in document traversal order
// plus any includes that could not be located.
type Result struct {
	Files   []*SourceFile
	Missing []MissingInclude
}

// includeRegex matches \input{...}, \include{...}, \subfile{...}.
var includeRegex = regexp.MustCompile(`(?i)\\(input|include|subfile)\s*\{([^}]+)\}`)

// Walker traverses inclusion directives depth-first from a root file.
// The file cache is scoped to one Walker, hence one pipeline run.
type Walker struct {
	visited map[string]*SourceFile
}

// NewWalker creates a walker with an empty per-run file cache.
func NewWalker() *Walker {
	return &Walker{visited: make(map[string]*SourceFile)}
}

// Walk loads the root file and every file reachable through inclusion
// directives, depth-first in directive order. A file reached through more
// than one parent (or through a cycle) is loaded and emitted exactly once,
// at its first reachable position. Only a missing or unreadable root is an
// error; missing includes are recorded and traversal continues.
func (w *Walker) Walk(rootPath string) (*Result, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolving root path: %w", err)
	}

	root, err := loadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading root source file: %w", err)
	}
	w.visited[abs] = root

	res := &Result{}
	w.walkFile(root, res)
	return res, nil
}

// walkFile recurses into a file's children before emitting the file itself,
// matching the traversal order the original scanner used: includes are
// followed in raw order, then the parent's own text is scanned.
func (w *Walker) walkFile(sf *SourceFile, res *Result) {
	for _, edge := range scanIncludes(sf) {
		if _, seen := w.visited[edge.Child]; seen {
			continue
		}
		child, err := loadFile(edge.Child)
		if err != nil {
			res.Missing = append(res.Missing, MissingInclude{
				Parent: edge.Parent,
				Target: edge.Child,
				Line:   edge.Line,
			})
			continue
		}
		w.visited[edge.Child] = child
		w.walkFile(child, res)
	}
	res.Files = append(res.Files, sf)
}

// scanIncludes finds inclusion directives in raw order. Directives on
// commented lines are honored anyway, as TeX tooling conventionally does
// for \input discovery; the citation extractor applies the stricter rule.
func scanIncludes(sf *SourceFile) []InclusionEdge {
	var edges []InclusionEdge
	for _, line := range sf.Lines {
		for _, m := range includeRegex.FindAllStringSubmatch(line.Text, -1) {
			target := strings.TrimSpace(m[2])
			if target == "" {
				continue
			}
			edges = append(edges, InclusionEdge{
				Parent: sf.Path,
				Child:  ResolveTarget(sf.Path, target),
				Kind:   DirectiveKind(strings.ToLower(m[1])),
				Line:   line.Number,
			})
		}
	}
	return edges
}

// ResolveTarget resolves a directive argument against the including file's
// directory, appending the default extension when none is present.
func ResolveTarget(parentPath, target string) string {
	if filepath.Ext(target) == "" {
		target += DefaultExtension
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(parentPath), target)
	}
	return filepath.Clean(target)
}

// loadFile reads a file and splits it into numbered lines.
func loadFile(path string) (*SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)

	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))
	for i, l := range raw {
		lines[i] = Line{Number: i + 1, Text: strings.TrimSuffix(l, "\r")}
	}

	return &SourceFile{Path: path, Text: text, Lines: lines}, nil
}
