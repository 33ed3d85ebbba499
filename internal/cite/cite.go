// Package cite extracts citation-command occurrences from LaTeX sources.
//
// The extraction rules are lexical heuristics, not a TeX grammar: line
// comments, a fixed set of verbatim-like environments, and \iffalse...\fi
// regions are skipped, and everything downstream is agnostic to the markup
// dialect behind this package's interface.
package cite

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/matsen/refcollect/internal/texsource"
)

// SnippetMaxLen bounds the surrounding-context snippet length in runes.
const SnippetMaxLen = 240

// Occurrence is one textual mention of a single citation key. A clustered
// command like \cite{a,b} produces one Occurrence per key, sharing the
// source line but carrying per-key column estimates.
type Occurrence struct {
	Key     string `json:"key"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"` // 1-based rune count to the key's first character
	Snippet string `json:"snippet"`
	// Seq is the occurrence's position in document traversal order,
	// counted across all files. Zero-based.
	Seq int `json:"seq"`
}

// citeRegex matches the citation command family: \cite, natbib and biblatex
// variants, optional star, and up to two optional [..] arguments before the
// key group.
var citeRegex = regexp.MustCompile(
	`\\(?:cite|citet|citep|Cite|Citet|Citep|parencite|textcite|autocite|smartcite|footcite|footcitetext|citeauthor|Citeauthor)\*?` +
		`(?:\s*\[[^\]]*\]){0,2}` +
		`\s*\{([^}]*)\}`)

// Environments whose whole bodies are skipped during extraction.
var skipEnvs = []string{"comment", "verbatim", "lstlisting", "minted"}

var (
	beginEnvRegex = regexp.MustCompile(`(?i)\\begin\{(` + strings.Join(skipEnvs, "|") + `)\}`)
	endEnvRegex   = regexp.MustCompile(`(?i)\\end\{(` + strings.Join(skipEnvs, "|") + `)\}`)
	iffalseRegex  = regexp.MustCompile(`(?i)\\iffalse\b`)
	fiRegex       = regexp.MustCompile(`(?i)\\fi\b`)
	percentRegex  = regexp.MustCompile(`(^|[^\\])%`)
)

// Extract scans the given files in order and returns all citation
// occurrences, preserving traversal order across files and top-to-bottom
// order within each file. Every key mention is kept individually;
// per-key grouping happens at the aggregator.
func Extract(files []*texsource.SourceFile) []Occurrence {
	var occs []Occurrence
	seq := 0
	for _, sf := range files {
		occs = scanFile(sf, occs, &seq)
	}
	return occs
}

// scanFile walks one file line by line, maintaining the skip state for
// verbatim-like environments and \iffalse regions.
func scanFile(sf *texsource.SourceFile, occs []Occurrence, seq *int) []Occurrence {
	inEnv := ""   // active skip-environment name, empty when outside
	inIffalse := false

	for _, line := range sf.Lines {
		if !inIffalse && iffalseRegex.MatchString(line.Text) {
			inIffalse = true
		}
		if inIffalse {
			if fiRegex.MatchString(line.Text) {
				inIffalse = false
			}
			continue
		}

		if inEnv == "" {
			if m := beginEnvRegex.FindStringSubmatch(line.Text); m != nil {
				inEnv = strings.ToLower(m[1])
				continue
			}
		} else {
			if m := endEnvRegex.FindStringSubmatch(line.Text); m != nil && strings.ToLower(m[1]) == inEnv {
				inEnv = ""
			}
			continue
		}

		segment := stripLineComment(line.Text)
		if !strings.Contains(segment, `\`) {
			continue
		}

		for _, loc := range citeRegex.FindAllStringSubmatchIndex(segment, -1) {
			keysStart := loc[2]
			keys := segment[loc[2]:loc[3]]
			snippet := makeSnippet(segment)
			for _, k := range splitKeys(keys) {
				*seq++
				occs = append(occs, Occurrence{
					Key:     k.key,
					File:    sf.Path,
					Line:    line.Number,
					Column:  utf8.RuneCountInString(segment[:keysStart+k.offset]) + 1,
					Snippet: snippet,
					Seq:     *seq - 1,
				})
			}
		}
	}
	return occs
}

// stripLineComment cuts the line at the first unescaped %. A citation
// command after that marker is commented out and must not match.
func stripLineComment(line string) string {
	if loc := percentRegex.FindStringIndex(line); loc != nil {
		// loc covers the optional preceding character; the % itself is the
		// last byte of the match.
		return line[:loc[1]-1]
	}
	return line
}

type keyItem struct {
	key    string
	offset int // byte offset of the key's first character within the group
}

// splitKeys expands a comma-separated key group, recording each key's
// offset so column estimates point at the key rather than the command.
func splitKeys(group string) []keyItem {
	var items []keyItem
	pos := 0
	for _, part := range strings.Split(group, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, keyItem{
				key:    trimmed,
				offset: pos + strings.Index(part, trimmed),
			})
		}
		pos += len(part) + 1 // account for the comma
	}
	return items
}

// makeSnippet trims and bounds a line segment for context display.
func makeSnippet(segment string) string {
	s := strings.TrimSpace(segment)
	runes := []rune(s)
	if len(runes) > SnippetMaxLen {
		return string(runes[:SnippetMaxLen]) + "…"
	}
	return s
}
