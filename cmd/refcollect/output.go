package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/refcollect/internal/report"
)

// Constants for output formatting.
const (
	TitleMaxLen    = 70 // Title truncation in human summaries
	TextWrapWidth  = 68 // Wrap width for abstracts in query output
	MaxHumanOccurs = 10 // Occurrences shown per record in human output
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n"+indent)
}

// formatAuthorsShort joins authors with "et al." for more than maxCount.
func formatAuthorsShort(authors []string, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}
	if len(authors) > maxCount {
		return strings.Join(authors[:maxCount], ", ") + ", et al."
	}
	return strings.Join(authors, ", ")
}

// formatRecordHuman renders a full record detail view.
func formatRecordHuman(rec *report.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%d] %s", rec.OrderNum, rec.Key)
	if rec.Unknown {
		b.WriteString(" (no bibliography entry)")
	}
	b.WriteString("\n")

	if rec.Title != "" {
		fmt.Fprintf(&b, "  %s\n", truncateString(rec.Title, TitleMaxLen))
	}
	if len(rec.Authors) > 0 {
		fmt.Fprintf(&b, "  %s", formatAuthorsShort(rec.Authors, 3))
		if rec.Year > 0 {
			fmt.Fprintf(&b, " (%d)", rec.Year)
		}
		b.WriteString("\n")
	}
	if rec.DOI != "" {
		fmt.Fprintf(&b, "  doi: %s\n", rec.DOI)
	}
	if rec.Abstract != "" {
		fmt.Fprintf(&b, "  %s\n", wrapText(rec.Abstract, TextWrapWidth, "  "))
	}

	for i, p := range rec.Occurrences {
		if i >= MaxHumanOccurs {
			fmt.Fprintf(&b, "  ... and %d more\n", len(rec.Occurrences)-MaxHumanOccurs)
			break
		}
		fmt.Fprintf(&b, "  %s:%d:%d -> %s\n",
			p.Occurrence.File, p.Occurrence.Line, p.Occurrence.Column,
			formatLocation(p.Location.Page, p.Location.Line))
	}
	return b.String()
}

// formatLocation renders a printed location for human output.
func formatLocation(page, line int) string {
	switch {
	case page >= 1 && line >= 1:
		return fmt.Sprintf("p.%d l.%d", page, line)
	case page >= 1:
		return fmt.Sprintf("p.%d", page)
	default:
		return "unmapped"
	}
}
