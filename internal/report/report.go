// Package report aggregates occurrences, bibliography entries, and
// resolved locations into per-citation-key records for presentation.
package report

import (
	"fmt"
	"sort"

	"github.com/matsen/refcollect/internal/bibtex"
	"github.com/matsen/refcollect/internal/cite"
	"github.com/matsen/refcollect/internal/pagelines"
)

// SortMode selects the record ordering.
type SortMode string

const (
	// SortOccurrence orders by first-occurrence sequence index.
	SortOccurrence SortMode = "occurrence"
	// SortYear orders by year ascending; entries without a parseable
	// year sort last, ties break by first occurrence.
	SortYear SortMode = "year"
	// SortBib orders by bibliography declaration order; keys absent from
	// the bibliography sort last in first-occurrence order.
	SortBib SortMode = "bib"
)

// ValidSortModes lists the accepted sort mode names.
var ValidSortModes = []SortMode{SortOccurrence, SortYear, SortBib}

// ParseSortMode validates a sort mode name. Empty selects SortOccurrence.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "", SortOccurrence:
		return SortOccurrence, nil
	case SortYear:
		return SortYear, nil
	case SortBib:
		return SortBib, nil
	default:
		return "", fmt.Errorf("invalid sort mode %q: must be occurrence, year, or bib", s)
	}
}

// Placed pairs an occurrence with its resolved printed location.
type Placed struct {
	Occurrence cite.Occurrence     `json:"occurrence"`
	Location   pagelines.Location  `json:"location"`
}

// Record is the per-citation-key aggregation consumed by renderers.
type Record struct {
	Key string `json:"key"`
	// Entry is nil when the key has no bibliography entry; such records
	// are kept, never dropped.
	Entry *bibtex.Entry `json:"-"`
	// Unknown marks a record whose key has no bibliography entry.
	Unknown bool `json:"unknown,omitempty"`

	// Display fields cleaned from the entry; empty for unknown keys.
	Title    string   `json:"title,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	URL      string   `json:"url,omitempty"`
	Abstract string   `json:"abstract,omitempty"`

	// Occurrences in document traversal order.
	Occurrences []Placed `json:"occurrences"`

	// FirstSeq is the sequence index of the key's first occurrence.
	FirstSeq int `json:"first_seq"`
	// OrderNum is the key's 1-based citation number in source-appearance
	// order, respecting order inside clustered commands.
	OrderNum int `json:"order_num"`
}

// WarningKind classifies pipeline warnings.
type WarningKind string

const (
	WarnMissingInclude      WarningKind = "missing_include"
	WarnDuplicateKey        WarningKind = "duplicate_key"
	WarnBibUnreadable       WarningKind = "bib_unreadable"
	WarnUnresolvedCitation  WarningKind = "unresolved_citation"
	WarnToolUnavailable     WarningKind = "tool_unavailable"
)

// Warning is a structured, non-fatal pipeline issue. Stage-local problems
// are recorded here rather than raised across stage boundaries.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Artifacts reports which build side-files (and tools) were found, so a
// renderer can explain why mapping may be partial.
type Artifacts struct {
	TexRoot     bool `json:"tex_root"`
	Bib         bool `json:"bib"`
	PDF         bool `json:"pdf"`
	SyncTeXData bool `json:"synctex_data"`
	SyncTeXTool bool `json:"synctex_tool"`
}

// Aggregate merges occurrences with bibliography entries and locations
// into sorted records. locs must parallel occs by index; a nil locs (or a
// short one) leaves the remainder fully unmapped. Every occurrence is
// preserved: resolution failures are representable states, never drops.
func Aggregate(occs []cite.Occurrence, ix *bibtex.Index, locs []pagelines.Location, mode SortMode) ([]*Record, []Warning) {
	byKey := make(map[string]*Record)
	var records []*Record
	var warnings []Warning

	for i, occ := range occs {
		rec, seen := byKey[occ.Key]
		if !seen {
			rec = newRecord(occ.Key, occ.Seq, len(records)+1, ix)
			byKey[occ.Key] = rec
			records = append(records, rec)
			if rec.Unknown {
				warnings = append(warnings, Warning{
					Kind:    WarnUnresolvedCitation,
					Message: fmt.Sprintf("citation key %q has no bibliography entry", occ.Key),
				})
			}
		}
		loc := pagelines.Unmapped
		if i < len(locs) {
			loc = locs[i]
		}
		rec.Occurrences = append(rec.Occurrences, Placed{Occurrence: occ, Location: loc})
	}

	sortRecords(records, mode)
	return records, warnings
}

// newRecord builds a record for a key's first occurrence, attaching and
// cleaning the bibliography entry when one exists.
func newRecord(key string, firstSeq, orderNum int, ix *bibtex.Index) *Record {
	rec := &Record{Key: key, FirstSeq: firstSeq, OrderNum: orderNum}
	entry := ix.Get(key)
	if entry == nil {
		rec.Unknown = true
		return rec
	}
	rec.Entry = entry
	rec.Title = bibtex.CleanField(entry.Get("title"))
	rec.Authors = bibtex.SplitAuthors(entry.Get("author"))
	rec.Year = entry.Year()
	rec.DOI = entry.DOI()
	rec.URL = entry.URL()
	rec.Abstract = bibtex.CleanField(entry.Get("abstract"))
	return rec
}

// sortRecords applies the selected order. All modes are stable with
// first-occurrence order as the ultimate tie-break, so output is
// deterministic across runs.
func sortRecords(records []*Record, mode SortMode) {
	switch mode {
	case SortYear:
		sort.SliceStable(records, func(i, j int) bool {
			yi, yj := records[i].Year, records[j].Year
			switch {
			case yi > 0 && yj > 0 && yi != yj:
				return yi < yj
			case yi > 0 && yj == 0:
				return true // parseable years before missing ones
			case yi == 0 && yj > 0:
				return false
			default:
				return records[i].FirstSeq < records[j].FirstSeq
			}
		})
	case SortBib:
		sort.SliceStable(records, func(i, j int) bool {
			ei, ej := records[i].Entry, records[j].Entry
			switch {
			case ei != nil && ej != nil:
				return ei.OrderIndex < ej.OrderIndex
			case ei != nil:
				return true // known keys before unknown ones
			case ej != nil:
				return false
			default:
				return records[i].FirstSeq < records[j].FirstSeq
			}
		})
	default: // SortOccurrence
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].FirstSeq < records[j].FirstSeq
		})
	}
}
