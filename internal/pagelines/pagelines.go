// Package pagelines derives printed-line bands from a rendered page's
// positioned text fragments and projects page coordinates onto them.
//
// The synchronization tool and the PDF text extractor use independent
// coordinate systems with independent rounding, so band matching is a
// nearest-interval heuristic: a band containing the target offset wins
// outright, otherwise the band with the minimal absolute distance from
// offset to interval edge is chosen, with exact ties going to the upper
// band. There is deliberately no distance cutoff; degradation is governed
// by fragment-data availability, not by a tolerance guess.
package pagelines

import (
	"errors"
	"sort"

	"github.com/matsen/refcollect/internal/synctex"
)

// ErrNoFragments indicates no text-fragment data is available for a page.
// Expected for figure-only or empty pages; callers downgrade to page-only.
var ErrNoFragments = errors.New("no text fragments for page")

// Fragment is one extracted text fragment with its vertical bounding
// interval in top-origin PDF points (Top < Bottom, growing downward).
type Fragment struct {
	Top    float64
	Bottom float64
	Text   string
}

// PageLine is a vertically-contiguous band of fragments approximating one
// printed line, numbered top-to-bottom from 1.
type PageLine struct {
	Page   int
	Number int
	Top    float64
	Bottom float64
	Text   string
}

// Location is the best-known printed location of an occurrence. Zero
// values model absence: Page 0 means fully unmapped; Line 0 with a page
// means page-only. Line is never set without Page.
type Location struct {
	Page int `json:"page,omitempty"`
	Line int `json:"line,omitempty"`
}

// Unmapped is the fully-unmapped location.
var Unmapped = Location{}

// HasPage reports whether the location carries a page number.
func (l Location) HasPage() bool { return l.Page >= 1 }

// HasLine reports whether the location carries a printed line number.
func (l Location) HasLine() bool { return l.HasPage() && l.Line >= 1 }

// Extractor supplies a page's text fragments. The PDF-backed
// implementation lives in pdf.go; tests substitute fakes.
type Extractor interface {
	// FragmentsForPage returns fragments for a 1-based page number.
	// Returns ErrNoFragments (possibly wrapped) when the page has none.
	FragmentsForPage(page int) ([]Fragment, error)
}

// BuildLines groups fragments into printed-line bands. Fragments whose
// vertical intervals overlap are merged; consecutive fragments on one
// typeset line routinely arrive as separate boxes. Bands are numbered
// top-to-bottom starting at 1.
func BuildLines(page int, frags []Fragment) []PageLine {
	if len(frags) == 0 {
		return nil
	}

	sorted := make([]Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Top != sorted[j].Top {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].Bottom < sorted[j].Bottom
	})

	var lines []PageLine
	cur := PageLine{Page: page, Top: sorted[0].Top, Bottom: sorted[0].Bottom, Text: sorted[0].Text}
	for _, f := range sorted[1:] {
		if f.Top < cur.Bottom { // vertical overlap with the open band
			if f.Bottom > cur.Bottom {
				cur.Bottom = f.Bottom
			}
			cur.Text += f.Text
			continue
		}
		lines = append(lines, cur)
		cur = PageLine{Page: page, Top: f.Top, Bottom: f.Bottom, Text: f.Text}
	}
	lines = append(lines, cur)

	for i := range lines {
		lines[i].Number = i + 1
	}
	return lines
}

// Project maps a coordinate onto the page's bands, yielding the printed
// location. An unmapped coordinate stays fully unmapped; a mapped
// coordinate with no bands stays page-only. A line number is produced only
// when band data exists.
func Project(coord synctex.Coordinate, lines []PageLine) Location {
	if !coord.IsMapped() {
		return Unmapped
	}
	loc := Location{Page: coord.Page}
	if band, ok := nearestBand(coord.Y, lines); ok {
		loc.Line = band.Number
	}
	return loc
}

// nearestBand finds the band containing y, or failing that the band whose
// interval lies closest to y. Ties at equal distance pick the upper band:
// bands are scanned top-to-bottom and a later band must be strictly
// closer to win.
func nearestBand(y float64, lines []PageLine) (PageLine, bool) {
	if len(lines) == 0 {
		return PageLine{}, false
	}
	best := lines[0]
	bestDist := intervalDistance(y, best)
	for _, l := range lines[1:] {
		if d := intervalDistance(y, l); d < bestDist {
			best, bestDist = l, d
		}
	}
	return best, true
}

// intervalDistance is 0 when y falls inside the band, else the distance
// to the nearer interval edge.
func intervalDistance(y float64, l PageLine) float64 {
	switch {
	case y < l.Top:
		return l.Top - y
	case y > l.Bottom:
		return y - l.Bottom
	default:
		return 0
	}
}
