package bibtex

import (
	"testing"
)

func TestCleanField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello World", "Hello World"},
		{"protective braces", "The {HIV} Epidemic", "The HIV Epidemic"},
		{"acute accent braced", `Andr\'{e}`, "André"},
		{"acute accent bare", `Andr\'e`, "André"},
		{"umlaut", `M\"{u}ller`, "Müller"},
		{"dashes", "pages 1--10 --- roughly", "pages 1–10 — roughly"},
		{"quotes", "``quoted''", "“quoted”"},
		{"escaped chars", `Fish \& Chips 100\%`, "Fish & Chips 100%"},
		{"greek", `\alpha-\beta testing`, "α-β testing"},
		{"greek letters with accent-command prefixes", `\kappa \rho \upsilon \chi`, "κ ρ υ χ"},
		{"varepsilon", `\varepsilon`, "ε"},
		{"circ symbol", `45\circ`, "45∘"},
		{"iota and infty keep their i", `\iota \infty`, "ι ∞"},
		{"spanish tilde", `Espa\~{n}a`, "España"},
		{"inline math dropped", `Energy $E = mc^2$ balance`, "Energy balance"},
		{"nbsp tilde", "Fig.~3", "Fig. 3"},
		{"whitespace collapsed", "a   b\n\tc", "a b c"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanField(tt.in); got != tt.want {
				t.Errorf("CleanField(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanField_NFCNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string // explicit precomposed code points
	}{
		{"acute e", `\'{e}`, "é"},
		{"umlaut u", `M\"{u}ller`, "Müller"},
		{"tilde n", `\~na`, "ña"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanField(tt.in)
			if got != tt.want {
				t.Errorf("CleanField(%q) = %q (% x), want %q (% x)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two authors", "Smith, Jane and Doe, John", []string{"Smith, Jane", "Doe, John"}},
		{"single author", "Smith, Jane", []string{"Smith, Jane"}},
		{"accented name", `M\"{u}ller, Hans and Others, A.`, []string{"Müller, Hans", "Others, A."}},
		{"Anderson not split", "Anderson, Phil", []string{"Anderson, Phil"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitAuthors(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitAuthors(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("author[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
