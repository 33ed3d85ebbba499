package pagelines

import (
	"testing"

	"github.com/matsen/refcollect/internal/synctex"
)

// threeBands is a page with bands at [100,110], [120,130], [140,150].
var threeBands = []PageLine{
	{Page: 1, Number: 1, Top: 100, Bottom: 110, Text: "first"},
	{Page: 1, Number: 2, Top: 120, Bottom: 130, Text: "second"},
	{Page: 1, Number: 3, Top: 140, Bottom: 150, Text: "third"},
}

func TestBuildLines_MergesOverlappingFragments(t *testing.T) {
	frags := []Fragment{
		// One typeset line emitted as three boxes with jittered intervals
		{Top: 100.0, Bottom: 110.0, Text: "Hello "},
		{Top: 100.4, Bottom: 110.4, Text: "positioned "},
		{Top: 99.8, Bottom: 109.8, Text: "world"},
		// A clearly separate line below
		{Top: 120.0, Bottom: 130.0, Text: "Next line"},
	}
	lines := BuildLines(4, frags)
	if len(lines) != 2 {
		t.Fatalf("got %d bands, want 2", len(lines))
	}
	if lines[0].Number != 1 || lines[1].Number != 2 {
		t.Errorf("band numbers = %d, %d; want 1, 2", lines[0].Number, lines[1].Number)
	}
	if lines[0].Page != 4 {
		t.Errorf("band page = %d, want 4", lines[0].Page)
	}
	if len(lines[0].Text) != len("Hello positioned world") {
		t.Errorf("merged band text = %q, want all three fragments' text", lines[0].Text)
	}
	if lines[0].Top != 99.8 || lines[0].Bottom != 110.4 {
		t.Errorf("merged interval = [%v,%v], want [99.8,110.4]", lines[0].Top, lines[0].Bottom)
	}
}

func TestBuildLines_OrderedTopToBottom(t *testing.T) {
	frags := []Fragment{
		{Top: 300, Bottom: 310, Text: "c"},
		{Top: 100, Bottom: 110, Text: "a"},
		{Top: 200, Bottom: 210, Text: "b"},
	}
	lines := BuildLines(1, frags)
	if len(lines) != 3 {
		t.Fatalf("got %d bands, want 3", len(lines))
	}
	for i, want := range []string{"a", "b", "c"} {
		if lines[i].Text != want {
			t.Errorf("band[%d].Text = %q, want %q", i, lines[i].Text, want)
		}
		if lines[i].Number != i+1 {
			t.Errorf("band[%d].Number = %d, want %d", i, lines[i].Number, i+1)
		}
	}
}

func TestBuildLines_Empty(t *testing.T) {
	if lines := BuildLines(1, nil); lines != nil {
		t.Errorf("BuildLines(nil) = %v, want nil", lines)
	}
}

func TestProject_ContainingBandWins(t *testing.T) {
	loc := Project(synctex.Coordinate{Page: 1, Y: 125}, threeBands)
	if loc.Page != 1 || loc.Line != 2 {
		t.Errorf("loc = %+v, want page 1 line 2", loc)
	}
}

func TestProject_NearestBandWhenOutside(t *testing.T) {
	tests := []struct {
		name string
		y    float64
		want int
	}{
		{"above everything", 50, 1},
		{"below everything", 500, 3},
		{"in gap nearer upper", 112, 1},
		{"in gap nearer lower", 118, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := Project(synctex.Coordinate{Page: 1, Y: tt.y}, threeBands)
			if loc.Line != tt.want {
				t.Errorf("Project(y=%v).Line = %d, want %d", tt.y, loc.Line, tt.want)
			}
		})
	}
}

func TestProject_EquidistantPicksUpperBand(t *testing.T) {
	// y=115 is exactly 5 from band 1's bottom (110) and band 2's top (120).
	loc := Project(synctex.Coordinate{Page: 1, Y: 115}, threeBands)
	if loc.Line != 1 {
		t.Errorf("equidistant pick = band %d, want 1 (upper)", loc.Line)
	}
	// Deterministic across repeated calls.
	for i := 0; i < 10; i++ {
		if again := Project(synctex.Coordinate{Page: 1, Y: 115}, threeBands); again.Line != loc.Line {
			t.Fatalf("tie-break not deterministic: %d vs %d", again.Line, loc.Line)
		}
	}
}

func TestProject_UnmappedCoordinateStaysUnmapped(t *testing.T) {
	loc := Project(synctex.NoMapping, threeBands)
	if loc != Unmapped {
		t.Errorf("loc = %+v, want fully unmapped", loc)
	}
	if loc.HasPage() || loc.HasLine() {
		t.Error("unmapped location claims page or line")
	}
}

func TestProject_NoBandsIsPageOnly(t *testing.T) {
	loc := Project(synctex.Coordinate{Page: 7, Y: 100}, nil)
	if !loc.HasPage() || loc.Page != 7 {
		t.Errorf("loc = %+v, want page-only page 7", loc)
	}
	if loc.HasLine() {
		t.Error("line number produced without band data")
	}
}

func TestLocation_States(t *testing.T) {
	tests := []struct {
		name     string
		loc      Location
		hasPage  bool
		hasLine  bool
	}{
		{"fully unmapped", Location{}, false, false},
		{"page only", Location{Page: 2}, true, false},
		{"page and line", Location{Page: 2, Line: 14}, true, true},
		{"line without page is not a line", Location{Line: 9}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.HasPage(); got != tt.hasPage {
				t.Errorf("HasPage() = %v, want %v", got, tt.hasPage)
			}
			if got := tt.loc.HasLine(); got != tt.hasLine {
				t.Errorf("HasLine() = %v, want %v", got, tt.hasLine)
			}
		})
	}
}
