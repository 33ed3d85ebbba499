// Package bibtex parses BibTeX sources into a key-indexed entry map.
//
// The parser is brace- and quote-aware but deliberately minimal: field
// values are stored as raw text, and any display normalization (accents,
// author splitting) lives in clean.go, not in the parser.
package bibtex

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Entry is one bibliography entry with raw field values.
type Entry struct {
	Key  string `json:"key"`
	Type string `json:"type"` // article, inproceedings, ...
	// Fields maps lowercased field names to raw values.
	Fields map[string]string `json:"fields"`
	// OrderIndex is the entry's 0-based position in declaration order.
	// A re-declared key takes the position of its winning declaration.
	OrderIndex int `json:"order_index"`
}

// Get returns a field value by name (case-insensitive), or "".
func (e *Entry) Get(field string) string {
	return e.Fields[strings.ToLower(field)]
}

// DuplicateKey records a key declared more than once; the later
// declaration replaced the earlier one.
type DuplicateKey struct {
	Key string
}

// Index is the parsed bibliography: unique keys, declaration order kept.
type Index struct {
	entries    map[string]*Entry
	order      []string // keys in winning declaration order
	Duplicates []DuplicateKey
}

// Get returns the entry for a key, or nil.
func (ix *Index) Get(key string) *Entry {
	if ix == nil {
		return nil
	}
	return ix.entries[key]
}

// Len returns the number of distinct entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Entries returns all entries in declaration order.
func (ix *Index) Entries() []*Entry {
	if ix == nil {
		return nil
	}
	out := make([]*Entry, 0, len(ix.order))
	for _, k := range ix.order {
		out = append(out, ix.entries[k])
	}
	return out
}

// ParseFile reads and parses a .bib file.
func ParseFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bib file: %w", err)
	}
	return Parse(string(data)), nil
}

var (
	entryStartRegex = regexp.MustCompile(`@([A-Za-z]+)\s*[({]`)
	fieldNameRegex  = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_\-]*)\s*=`)
	commentRegex    = regexp.MustCompile(`(^|[^\\])%.*`)
)

// Parse parses BibTeX text. Malformed regions are skipped; whatever can
// be recovered is returned. Never fails.
func Parse(text string) *Index {
	text = stripComments(text)
	ix := &Index{entries: make(map[string]*Entry)}

	i := 0
	for {
		at := strings.Index(text[i:], "@")
		if at == -1 {
			break
		}
		at += i

		m := entryStartRegex.FindStringSubmatch(text[at:])
		if m == nil || !strings.HasPrefix(text[at:], m[0]) {
			i = at + 1
			continue
		}
		entryType := strings.ToLower(m[1])

		openPos := at + len(m[0]) - 1
		closeChar := byte('}')
		if text[openPos] == '(' {
			closeChar = ')'
		}

		end, ok := matchDelimiter(text, openPos, text[openPos], closeChar)
		if !ok {
			i = at + 1
			continue
		}

		// @comment/@preamble/@string blocks carry no citable key
		if entryType == "comment" || entryType == "preamble" || entryType == "string" {
			i = end + 1
			continue
		}

		body := strings.TrimSpace(text[openPos+1 : end])
		comma := strings.Index(body, ",")
		if comma == -1 {
			i = end + 1
			continue
		}
		key := strings.TrimSpace(body[:comma])
		fields := parseFields(body[comma+1:])

		if _, exists := ix.entries[key]; exists {
			ix.Duplicates = append(ix.Duplicates, DuplicateKey{Key: key})
			ix.removeFromOrder(key)
		}
		entry := &Entry{Key: key, Type: entryType, Fields: fields, OrderIndex: len(ix.order)}
		ix.entries[key] = entry
		ix.order = append(ix.order, key)

		i = end + 1
	}

	// Reassign order indexes after duplicate removals shifted positions.
	for pos, k := range ix.order {
		ix.entries[k].OrderIndex = pos
	}

	return ix
}

func (ix *Index) removeFromOrder(key string) {
	for i, k := range ix.order {
		if k == key {
			ix.order = append(ix.order[:i], ix.order[i+1:]...)
			return
		}
	}
}

// matchDelimiter finds the closing delimiter balancing text[open],
// returning its index.
func matchDelimiter(text string, open int, openChar, closeChar byte) (int, bool) {
	depth := 0
	for j := open; j < len(text); j++ {
		switch text[j] {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return 0, false
}

// parseFields parses the "name = value, ..." tail of an entry body.
func parseFields(s string) map[string]string {
	fields := make(map[string]string)
	k := 0
	for k < len(s) {
		for k < len(s) && (s[k] == ',' || isSpace(s[k])) {
			k++
		}
		if k >= len(s) {
			break
		}
		m := fieldNameRegex.FindStringSubmatch(s[k:])
		if m == nil {
			next := strings.Index(s[k:], ",")
			if next == -1 {
				break
			}
			k += next + 1
			continue
		}
		name := strings.ToLower(m[1])
		k += len(m[0])
		value, rest := readValue(s, k)
		fields[name] = strings.TrimSpace(value)
		k = rest
	}
	return fields
}

// readValue reads one field value starting at i: braced, quoted, or bare.
func readValue(s string, i int) (string, int) {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i >= len(s) {
		return "", i
	}
	switch s[i] {
	case '{':
		end, ok := matchDelimiter(s, i, '{', '}')
		if !ok {
			return s[i+1:], len(s)
		}
		return s[i+1 : end], end + 1
	case '"':
		for j := i + 1; j < len(s); j++ {
			if s[j] == '"' && s[j-1] != '\\' {
				return s[i+1 : j], j + 1
			}
		}
		return s[i+1:], len(s)
	default:
		j := i
		for j < len(s) && s[j] != ',' && s[j] != '}' {
			j++
		}
		return strings.TrimSpace(s[i:j]), j
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// stripComments removes %-to-end-of-line comments, honoring \% escapes.
func stripComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = commentRegex.ReplaceAllString(l, "$1")
	}
	return strings.Join(lines, "\n")
}
