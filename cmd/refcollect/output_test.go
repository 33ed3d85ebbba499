package main

import (
	"strings"
	"testing"

	"github.com/matsen/refcollect/internal/cite"
	"github.com/matsen/refcollect/internal/pagelines"
	"github.com/matsen/refcollect/internal/report"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten...", 14, "exactly ten..."},
		{"this is a longer string", 10, "this is..."},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	short := "fits on one line"
	if got := wrapText(short, 60, "  "); got != short {
		t.Errorf("wrapText() changed short text: %q", got)
	}

	long := strings.Repeat("word ", 30)
	wrapped := wrapText(long, 20, "  ")
	for i, line := range strings.Split(wrapped, "\n") {
		if len(line) > 22 {
			t.Errorf("line %d too long: %q", i, line)
		}
	}
}

func TestFormatAuthorsShort(t *testing.T) {
	tests := []struct {
		name    string
		authors []string
		max     int
		want    string
	}{
		{"empty", nil, 3, ""},
		{"under max", []string{"A. Smith", "B. Jones"}, 3, "A. Smith, B. Jones"},
		{"over max", []string{"A", "B", "C", "D"}, 2, "A, B, et al."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAuthorsShort(tt.authors, tt.max); got != tt.want {
				t.Errorf("formatAuthorsShort() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatLocation(t *testing.T) {
	tests := []struct {
		page, line int
		want       string
	}{
		{3, 14, "p.3 l.14"},
		{3, 0, "p.3"},
		{0, 0, "unmapped"},
	}

	for _, tt := range tests {
		if got := formatLocation(tt.page, tt.line); got != tt.want {
			t.Errorf("formatLocation(%d, %d) = %q, want %q", tt.page, tt.line, got, tt.want)
		}
	}
}

func TestFormatRecordHuman(t *testing.T) {
	rec := &report.Record{
		Key:      "smith2020",
		Title:    "A Study",
		Authors:  []string{"Jane Smith"},
		Year:     2020,
		OrderNum: 1,
		Occurrences: []report.Placed{
			{
				Occurrence: cite.Occurrence{Key: "smith2020", File: "main.tex", Line: 10, Column: 5},
				Location:   pagelines.Location{Page: 2, Line: 14},
			},
		},
	}

	out := formatRecordHuman(rec)
	for _, want := range []string{"smith2020", "A Study", "Jane Smith", "(2020)", "main.tex:10:5", "p.2 l.14"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatRecordHuman() missing %q in:\n%s", want, out)
		}
	}

	unknown := &report.Record{Key: "ghost", Unknown: true, OrderNum: 2}
	if !strings.Contains(formatRecordHuman(unknown), "no bibliography entry") {
		t.Error("formatRecordHuman() missing unknown marker")
	}
}
